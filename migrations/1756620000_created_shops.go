package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("shops")

		collection.Fields.Add(
			&core.TextField{
				Name:     "shop_id",
				Required: true,
			},
			&core.TextField{
				Name: "name",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		collection.AddIndex("idx_shops_shop_id", true, "shop_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("shops")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
