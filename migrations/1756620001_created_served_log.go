package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("served_log")

		collection.Fields.Add(
			&core.TextField{
				Name:     "shop_id",
				Required: true,
			},
			&core.TextField{
				Name:     "customer_id",
				Required: true,
			},
			&core.TextField{
				Name: "customer_name",
			},
			&core.DateField{
				Name: "joined_at",
			},
			&core.DateField{
				Name: "served_at",
			},
			&core.NumberField{
				Name: "wait_minutes",
			},
		)

		collection.AddIndex("idx_served_log_shop_id", false, "shop_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("served_log")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
