package models

import (
	"campus/db"
	"strings"

	"gorm.io/gorm"
)

type Staff struct {
	ID         uint64 `gorm:"primaryKey;column:staff_id" json:"staff_id"`
	CreatedAt  int64  `json:"-"`
	UpdatedAt  int64  `json:"-"`
	Name       string `gorm:"type:varchar(100);not null" json:"name"`
	Role       string `gorm:"type:varchar(100)" json:"role"`
	Department string `gorm:"type:varchar(100)" json:"department"`
	Contact    string `gorm:"type:varchar(150)" json:"contact"`
}

type StaffFields struct {
	Name       string
	Role       string
	Department string
	Contact    string
}

func (Staff) TableName() string {
	return "staff"
}

func (f *StaffFields) applyTo(s *Staff) {
	s.Name = strings.TrimSpace(f.Name)
	s.Role = f.Role
	s.Department = f.Department
	s.Contact = f.Contact
}

func StaffList() ([]Staff, error) {
	staff := []Staff{}
	err := db.Instance.Order("staff_id").Find(&staff).Error
	return staff, err
}

func StaffGet(id uint64) (staff Staff, err error) {
	err = notFound(db.Instance.First(&staff, id).Error)
	return
}

func StaffCreate(fields StaffFields) (staff Staff, err error) {
	fields.applyTo(&staff)
	err = db.Instance.Create(&staff).Error
	return
}

func StaffUpdate(id uint64, fields StaffFields) (staff Staff, err error) {
	err = db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&staff, id).Error; err != nil {
			return notFound(err)
		}
		fields.applyTo(&staff)
		return tx.Save(&staff).Error
	})
	if err != nil {
		return Staff{}, err
	}
	return
}

// StaffDelete refuses to delete a staff member who currently holds an asset
func StaffDelete(id uint64) error {
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		var assigned int64
		if err := tx.Model(&Assignment{}).Where("staff_id = ?", id).Count(&assigned).Error; err != nil {
			return err
		}
		if assigned > 0 {
			return ErrReferenced
		}
		result := tx.Delete(&Staff{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	return parentDeleteError(err)
}
