package models

import (
	"campus/db"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

var jan10 = NewDate(2024, time.January, 10)

// assertMatching checks that no asset and no staff member appears in more than one assignment
func assertMatching(t *testing.T) {
	t.Helper()
	var rows []Assignment
	require.NoError(t, db.Instance.Find(&rows).Error)
	assets := map[uint64]uint64{}
	staff := map[uint64]uint64{}
	for _, r := range rows {
		if other, ok := assets[r.AssetID]; ok {
			t.Fatalf("asset %d held by assignments %d and %d", r.AssetID, other, r.ID)
		}
		if other, ok := staff[r.StaffID]; ok {
			t.Fatalf("staff %d holds assignments %d and %d", r.StaffID, other, r.ID)
		}
		assets[r.AssetID] = r.ID
		staff[r.StaffID] = r.ID
	}
}

func countAssignments(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Instance.Model(&Assignment{}).Count(&count).Error)
	return count
}

func TestAssignmentCreate(t *testing.T) {
	setupTestDB(t)
	laptop := mustAsset(t, "Laptop")
	alice := mustStaff(t, "Alice")

	a, err := AssignmentCreate(AssignmentFields{AssetID: laptop.ID, StaffID: alice.ID, AssignedDate: jan10})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)
	assert.Equal(t, laptop.ID, a.AssetID)
	assert.Equal(t, alice.ID, a.StaffID)
	assert.Equal(t, "2024-01-10", a.AssignedDate.String())
}

func TestAssignmentCreate_Conflict(t *testing.T) {
	setupTestDB(t)
	assetA := mustAsset(t, "A")
	assetB := mustAsset(t, "B")
	s1 := mustStaff(t, "S1")
	s2 := mustStaff(t, "S2")
	_, err := AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10})
	require.NoError(t, err)

	tests := []struct {
		name    string
		assetID uint64
		staffID uint64
	}{
		{"same asset", assetA.ID, s2.ID},
		{"same staff", assetB.ID, s1.ID},
		{"same pair", assetA.ID, s1.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssignmentCreate(AssignmentFields{AssetID: tt.assetID, StaffID: tt.staffID, AssignedDate: jan10})
			assert.ErrorIs(t, err, ErrConflict)
			assert.Equal(t, int64(1), countAssignments(t))
		})
	}
}

func TestAssignmentCreate_InvalidReference(t *testing.T) {
	setupTestDB(t)
	asset := mustAsset(t, "A")
	staff := mustStaff(t, "S")

	_, err := AssignmentCreate(AssignmentFields{AssetID: asset.ID, StaffID: staff.ID + 100, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrInvalidReference)
	_, err = AssignmentCreate(AssignmentFields{AssetID: asset.ID + 100, StaffID: staff.ID, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.Zero(t, countAssignments(t))
}

func TestAssignmentUpdate_Exclusion(t *testing.T) {
	setupTestDB(t)
	assetA := mustAsset(t, "A")
	assetB := mustAsset(t, "B")
	s1 := mustStaff(t, "S1")
	s2 := mustStaff(t, "S2")
	s3 := mustStaff(t, "S3")
	first, err := AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10})
	require.NoError(t, err)
	second, err := AssignmentCreate(AssignmentFields{AssetID: assetB.ID, StaffID: s2.ID, AssignedDate: jan10})
	require.NoError(t, err)

	// Asset A is held by the first assignment
	_, err = AssignmentUpdate(second.ID, AssignmentFields{AssetID: assetA.ID, StaffID: s2.ID, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrConflict)
	view, err := AssignmentGet(second.ID)
	require.NoError(t, err)
	assert.Equal(t, assetB.ID, view.AssetID)

	// Its own asset and a free staff member are fine
	feb1 := NewDate(2024, time.February, 1)
	updated, err := AssignmentUpdate(second.ID, AssignmentFields{AssetID: assetB.ID, StaffID: s3.ID, AssignedDate: feb1})
	require.NoError(t, err)
	assert.Equal(t, s3.ID, updated.StaffID)
	assert.Equal(t, "2024-02-01", updated.AssignedDate.String())

	view, err = AssignmentGet(second.ID)
	require.NoError(t, err)
	assert.Equal(t, "S3", view.StaffName)
	assert.Equal(t, "2024-02-01", view.AssignedDate.String())

	// Updating to the values it already has is not a conflict with itself
	_, err = AssignmentUpdate(first.ID, AssignmentFields{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10})
	assert.NoError(t, err)
	assertMatching(t)
}

func TestAssignmentUpdate_NotFound(t *testing.T) {
	setupTestDB(t)
	assetA := mustAsset(t, "A")
	assetB := mustAsset(t, "B")
	s1 := mustStaff(t, "S1")
	s2 := mustStaff(t, "S2")
	_, err := AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10})
	require.NoError(t, err)

	_, err = AssignmentUpdate(99, AssignmentFields{AssetID: assetB.ID, StaffID: s2.ID, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrNotFound)

	// Conflicts are reported first
	_, err = AssignmentUpdate(99, AssignmentFields{AssetID: assetA.ID, StaffID: s2.ID, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAssignmentUpdate_InvalidReference(t *testing.T) {
	setupTestDB(t)
	asset := mustAsset(t, "A")
	staff := mustStaff(t, "S")
	a, err := AssignmentCreate(AssignmentFields{AssetID: asset.ID, StaffID: staff.ID, AssignedDate: jan10})
	require.NoError(t, err)

	_, err = AssignmentUpdate(a.ID, AssignmentFields{AssetID: asset.ID + 10, StaffID: staff.ID, AssignedDate: jan10})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestAssignmentDelete_FreesSlots(t *testing.T) {
	setupTestDB(t)
	assetA := mustAsset(t, "A")
	s1 := mustStaff(t, "S1")
	s3 := mustStaff(t, "S3")
	a, err := AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10})
	require.NoError(t, err)

	_, err = AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s3.ID, AssignedDate: jan10})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, AssignmentDelete(a.ID))
	assert.ErrorIs(t, AssignmentDelete(a.ID), ErrNotFound)

	_, err = AssignmentCreate(AssignmentFields{AssetID: assetA.ID, StaffID: s3.ID, AssignedDate: jan10})
	assert.NoError(t, err)
	// S1 is free again as well
	assetB := mustAsset(t, "B")
	_, err = AssignmentCreate(AssignmentFields{AssetID: assetB.ID, StaffID: s1.ID, AssignedDate: jan10})
	assert.NoError(t, err)
}

func TestAssignmentListAndGet(t *testing.T) {
	setupTestDB(t)
	laptop := mustAsset(t, "Laptop")
	phone := mustAsset(t, "Phone")
	alice := mustStaff(t, "Alice")
	bob := mustStaff(t, "Bob")

	views, err := AssignmentList()
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)

	a1, err := AssignmentCreate(AssignmentFields{AssetID: laptop.ID, StaffID: alice.ID, AssignedDate: jan10})
	require.NoError(t, err)
	a2, err := AssignmentCreate(AssignmentFields{AssetID: phone.ID, StaffID: bob.ID, AssignedDate: NewDate(2024, time.March, 3)})
	require.NoError(t, err)

	views, err = AssignmentList()
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, AssignmentView{ID: a1.ID, AssetID: laptop.ID, StaffID: alice.ID, AssetName: "Laptop", StaffName: "Alice", AssignedDate: jan10}, views[0])
	assert.Equal(t, a2.ID, views[1].ID)
	assert.Equal(t, "Phone", views[1].AssetName)
	assert.Equal(t, "Bob", views[1].StaffName)
	assert.Equal(t, "2024-03-03", views[1].AssignedDate.String())

	view, err := AssignmentGet(a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Laptop", view.AssetName)
	assert.Equal(t, "Alice", view.StaffName)
	assert.Equal(t, "2024-01-10", view.AssignedDate.String())

	_, err = AssignmentGet(a2.ID + 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignment_UniqueIndexesBackTheInvariant(t *testing.T) {
	setupTestDB(t)
	assetA := mustAsset(t, "A")
	assetB := mustAsset(t, "B")
	s1 := mustStaff(t, "S1")
	s2 := mustStaff(t, "S2")
	require.NoError(t, db.Instance.Create(&Assignment{AssetID: assetA.ID, StaffID: s1.ID, AssignedDate: jan10}).Error)

	// Writes that skip the application check still fail
	err := db.Instance.Create(&Assignment{AssetID: assetA.ID, StaffID: s2.ID, AssignedDate: jan10}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
	assert.ErrorIs(t, translateWriteError(err), ErrConflict)

	err = db.Instance.Create(&Assignment{AssetID: assetB.ID, StaffID: s1.ID, AssignedDate: jan10}).Error
	require.Error(t, err)
	assert.True(t, isDuplicateKey(err))
}

func TestAssignment_ForeignKeysRestrictDelete(t *testing.T) {
	setupTestDB(t)
	asset := mustAsset(t, "A")
	staff := mustStaff(t, "S")
	_, err := AssignmentCreate(AssignmentFields{AssetID: asset.ID, StaffID: staff.ID, AssignedDate: jan10})
	require.NoError(t, err)

	tests := []struct {
		name   string
		delete func() error
	}{
		{"asset", func() error { return db.Instance.Delete(&Asset{}, asset.ID).Error }},
		{"staff", func() error { return db.Instance.Delete(&Staff{}, staff.ID).Error }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.delete()
			require.Error(t, err)
			assert.True(t, isForeignKeyViolation(err), "unexpected error: %v", err)
			assert.ErrorIs(t, parentDeleteError(err), ErrReferenced)
		})
	}

	// Both rows survive
	_, err = AssetGet(asset.ID)
	assert.NoError(t, err)
	_, err = StaffGet(staff.ID)
	assert.NoError(t, err)
}

func TestAssignment_ForeignKeysRejectDanglingInsert(t *testing.T) {
	setupTestDB(t)
	staff := mustStaff(t, "S")

	err := db.Instance.Omit(clause.Associations).Create(&Assignment{AssetID: 99, StaffID: staff.ID, AssignedDate: jan10}).Error
	require.Error(t, err)
	assert.True(t, isForeignKeyViolation(err), "unexpected error: %v", err)
	assert.ErrorIs(t, translateWriteError(err), ErrInvalidReference)
}

func TestParentDeleteError(t *testing.T) {
	other := errors.New("disk I/O error")
	assert.ErrorIs(t, parentDeleteError(other), other)
	assert.NoError(t, parentDeleteError(nil))
	assert.ErrorIs(t, parentDeleteError(ErrNotFound), ErrNotFound)
}

func TestAssignmentCreate_Concurrent(t *testing.T) {
	setupTestDB(t)
	laptop := mustAsset(t, "Laptop")
	const workers = 8
	staff := make([]Staff, workers)
	for i := range staff {
		staff[i] = mustStaff(t, "Staff")
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = AssignmentCreate(AssignmentFields{AssetID: laptop.ID, StaffID: staff[i].ID, AssignedDate: jan10})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, ErrConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), countAssignments(t))
	assertMatching(t)
}

func TestAssignment_InvariantUnderRandomOperations(t *testing.T) {
	setupTestDB(t)
	const n = 5
	var assetIDs, staffIDs []uint64
	for i := 0; i < n; i++ {
		assetIDs = append(assetIDs, mustAsset(t, "Asset").ID)
		staffIDs = append(staffIDs, mustStaff(t, "Staff").ID)
	}
	r := rand.New(rand.NewSource(7))
	var live []uint64
	for step := 0; step < 150; step++ {
		f := AssignmentFields{
			AssetID:      assetIDs[r.Intn(n)],
			StaffID:      staffIDs[r.Intn(n)],
			AssignedDate: jan10,
		}
		switch op := r.Intn(3); {
		case op == 0 || len(live) == 0:
			a, err := AssignmentCreate(f)
			if err == nil {
				live = append(live, a.ID)
			} else {
				require.ErrorIs(t, err, ErrConflict)
			}
		case op == 1:
			_, err := AssignmentUpdate(live[r.Intn(len(live))], f)
			if err != nil {
				require.ErrorIs(t, err, ErrConflict)
			}
		default:
			i := r.Intn(len(live))
			require.NoError(t, AssignmentDelete(live[i]))
			live = append(live[:i], live[i+1:]...)
		}
		assertMatching(t)
	}
}
