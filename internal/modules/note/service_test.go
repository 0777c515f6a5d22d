package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesail/core/internal/models"
	"github.com/tidesail/core/internal/pkg/testdb"
	"gorm.io/gorm"
)

func seed(t *testing.T) (*gorm.DB, *Service, *models.UserModel, *models.VesselModel) {
	t.Helper()
	db := testdb.Open(t)
	svc := NewService(db)

	owner := models.UserModel{Username: "owner", Email: "owner@example.com", Password: "x"}
	require.NoError(t, db.Create(&owner).Error)

	mk := models.MakeModel{Name: "beneteau"}
	require.NoError(t, db.Create(&mk).Error)
	boat := models.SailboatModel{Name: "oceanis 35", MakeID: mk.ID}
	require.NoError(t, db.Create(&boat).Error)
	vessel := models.VesselModel{
		SailboatID:               boat.ID,
		HullIdentificationNumber: "BEY12345C505",
		Name:                     "Wanderer",
		CreatedByID:              owner.ID,
	}
	require.NoError(t, db.Create(&vessel).Error)

	return db, svc, &owner, &vessel
}

func addUser(t *testing.T, db *gorm.DB, username string) *models.UserModel {
	t.Helper()
	u := models.UserModel{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestCreateOncePerVesselAndUser(t *testing.T) {
	_, svc, owner, vessel := seed(t)

	note, err := svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "engine serviced"})
	require.NoError(t, err)
	require.Len(t, note.Messages, 1)
	assert.Equal(t, "engine serviced", note.Messages[0].Content)

	_, err = svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "again"})
	assert.ErrorIs(t, err, ErrNoteExists)
}

func TestListAccessibleIncludesSharedNotes(t *testing.T) {
	db, svc, owner, vessel := seed(t)
	friend := addUser(t, db, "friend")
	stranger := addUser(t, db, "stranger")

	note, err := svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "keel inspected"})
	require.NoError(t, err)
	require.NoError(t, svc.Share(owner, note.ID, &ShareDTO{Email: friend.Email}))

	notes, err := svc.ListAccessible(friend, vessel.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	notes, err = svc.ListAccessible(stranger, vessel.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestAddMessageRequiresOwnershipOrShare(t *testing.T) {
	db, svc, owner, vessel := seed(t)
	friend := addUser(t, db, "friend")
	stranger := addUser(t, db, "stranger")

	note, err := svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "first"})
	require.NoError(t, err)

	_, err = svc.AddMessage(stranger, note.ID, &MessageDTO{Content: "nope"})
	assert.ErrorIs(t, err, ErrNoAccess)

	require.NoError(t, svc.Share(owner, note.ID, &ShareDTO{Email: friend.Email}))
	msg, err := svc.AddMessage(friend, note.ID, &MessageDTO{Content: "replaced the impeller"})
	require.NoError(t, err)
	assert.Equal(t, friend.ID, msg.UserID)
}

func TestMessageEditsAreAuthorOnly(t *testing.T) {
	db, svc, owner, vessel := seed(t)
	friend := addUser(t, db, "friend")

	note, err := svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "first"})
	require.NoError(t, err)
	require.NoError(t, svc.Share(owner, note.ID, &ShareDTO{Email: friend.Email}))

	msgID := note.Messages[0].ID
	_, err = svc.UpdateMessage(friend, msgID, &MessageDTO{Content: "edited"})
	assert.ErrorIs(t, err, ErrNotAuthor)
	assert.ErrorIs(t, svc.DeleteMessage(friend, msgID), ErrNotAuthor)

	updated, err := svc.UpdateMessage(owner, msgID, &MessageDTO{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	require.NoError(t, svc.DeleteMessage(owner, msgID))

	var count int64
	db.Model(&models.NoteMessageModel{}).Count(&count)
	assert.Zero(t, count)
}

func TestShareIsOwnerOnlyAndNeedsKnownEmail(t *testing.T) {
	db, svc, owner, vessel := seed(t)
	friend := addUser(t, db, "friend")

	note, err := svc.Create(owner, vessel.ID, &CreateNoteDTO{Content: "first"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Share(friend, note.ID, &ShareDTO{Email: owner.Email}), ErrNotOwner)
	assert.ErrorIs(t, svc.Share(owner, note.ID, &ShareDTO{Email: "ghost@example.com"}), ErrUnknownEmail)
}
