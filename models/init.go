package models

import (
	"campus/db"
)

func Init() {
	// Assets and staff first, assignments reference both
	if err := db.Instance.AutoMigrate(&Asset{}, &Staff{}, &Assignment{}); err != nil {
		panic(err)
	}
}
