package models

import (
	"campus/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assignment binds one asset to one staff member. Neither side may appear
// in more than one row: the unique indexes back the checks done in
// AssignmentCreate and AssignmentUpdate, so a racing writer that slips
// past the check still fails at the storage layer.
type Assignment struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	AssetID      uint64 `gorm:"not null;uniqueIndex:uniq_assignment_asset" json:"asset_id"`
	Asset        *Asset `gorm:"foreignKey:AssetID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	StaffID      uint64 `gorm:"not null;uniqueIndex:uniq_assignment_staff" json:"staff_id"`
	Staff        *Staff `gorm:"foreignKey:StaffID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	AssignedDate Date   `gorm:"type:date;not null" json:"assigned_date"`
}

type AssignmentFields struct {
	AssetID      uint64
	StaffID      uint64
	AssignedDate Date
}

// AssignmentView is the read side: names instead of bare identities
type AssignmentView struct {
	ID           uint64 `json:"id"`
	AssetID      uint64 `json:"asset_id"`
	StaffID      uint64 `json:"staff_id"`
	AssetName    string `json:"asset_name"`
	StaffName    string `json:"staff_name"`
	AssignedDate Date   `json:"assigned_date"`
}

const assignmentViewSelect = "assignments.id, assignments.asset_id, assignments.staff_id, " +
	"assets.name AS asset_name, staff.name AS staff_name, assignments.assigned_date"

func assignmentViews() *gorm.DB {
	return db.Instance.
		Table("assignments").
		Select(assignmentViewSelect).
		Joins("JOIN assets ON assets.asset_id = assignments.asset_id").
		Joins("JOIN staff ON staff.staff_id = assignments.staff_id")
}

func AssignmentList() ([]AssignmentView, error) {
	views := []AssignmentView{}
	err := assignmentViews().Order("assignments.id").Scan(&views).Error
	return views, err
}

// AssignmentGet fails with ErrNotFound if the assignment, its asset or its staff member is missing
func AssignmentGet(id uint64) (AssignmentView, error) {
	views := []AssignmentView{}
	if err := assignmentViews().Where("assignments.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return AssignmentView{}, err
	}
	if len(views) == 0 {
		return AssignmentView{}, ErrNotFound
	}
	return views[0], nil
}

// checkAvailable fails with ErrConflict if any assignment other than exceptID
// already uses the asset or the staff member. On MySQL the matching rows and
// index gaps stay locked until the transaction ends; SQLite transactions are
// started with BEGIN IMMEDIATE, so writers are already serialized.
func checkAvailable(tx *gorm.DB, exceptID uint64, f AssignmentFields) error {
	q := tx.Model(&Assignment{}).Where("(asset_id = ? OR staff_id = ?)", f.AssetID, f.StaffID)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if db.IsMySQL(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	taken := []Assignment{}
	if err := q.Limit(1).Find(&taken).Error; err != nil {
		return err
	}
	if len(taken) > 0 {
		return ErrConflict
	}
	return nil
}

func checkReferences(tx *gorm.DB, f AssignmentFields) error {
	var count int64
	if err := tx.Model(&Asset{}).Where("asset_id = ?", f.AssetID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidReference
	}
	if err := tx.Model(&Staff{}).Where("staff_id = ?", f.StaffID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidReference
	}
	return nil
}

func translateWriteError(err error) error {
	if isDuplicateKey(err) {
		return ErrConflict
	}
	if isForeignKeyViolation(err) {
		return ErrInvalidReference
	}
	return err
}

func AssignmentCreate(f AssignmentFields) (Assignment, error) {
	assignment := Assignment{
		AssetID:      f.AssetID,
		StaffID:      f.StaffID,
		AssignedDate: f.AssignedDate,
	}
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := checkAvailable(tx, 0, f); err != nil {
			return err
		}
		if err := checkReferences(tx, f); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(&assignment).Error
	})
	if err != nil {
		return Assignment{}, translateWriteError(err)
	}
	return assignment, nil
}

// AssignmentUpdate overwrites all fields of an assignment. A conflict with
// another assignment is reported before a missing id.
func AssignmentUpdate(id uint64, f AssignmentFields) (Assignment, error) {
	var assignment Assignment
	err := db.Instance.Transaction(func(tx *gorm.DB) error {
		if err := checkAvailable(tx, id, f); err != nil {
			return err
		}
		q := tx
		if db.IsMySQL(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&assignment, id).Error; err != nil {
			return notFound(err)
		}
		if err := checkReferences(tx, f); err != nil {
			return err
		}
		assignment.AssetID = f.AssetID
		assignment.StaffID = f.StaffID
		assignment.AssignedDate = f.AssignedDate
		return tx.Model(&Assignment{ID: id}).
			Select("asset_id", "staff_id", "assigned_date").
			Updates(map[string]any{
				"asset_id":      f.AssetID,
				"staff_id":      f.StaffID,
				"assigned_date": f.AssignedDate,
			}).Error
	})
	if err != nil {
		return Assignment{}, translateWriteError(err)
	}
	return assignment, nil
}

// AssignmentDelete frees both the asset and the staff member
func AssignmentDelete(id uint64) error {
	result := db.Instance.Delete(&Assignment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
