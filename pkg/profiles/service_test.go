package profiles

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herrors "github.com/KarthikeyanM3011/Hudle.ai/pkg/errors"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/voice"
)

const ownerID = int64(10)

type fakeStore struct {
	nextID   int64
	profiles map[int64]*storage.CoachProfile
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[int64]*storage.CoachProfile{}}
}

func (f *fakeStore) Create(ctx context.Context, p storage.NewProfileParams) (*storage.CoachProfile, error) {
	for _, existing := range f.profiles {
		if existing.CreatedBy == p.CreatedBy && existing.CoachName == p.CoachName {
			return nil, fmt.Errorf("profile %q already exists: %w", p.CoachName, herrors.ErrConflict)
		}
	}
	f.nextID++
	profile := &storage.CoachProfile{
		ID:               f.nextID,
		CreatedBy:        p.CreatedBy,
		CoachName:        p.CoachName,
		CoachRole:        p.CoachRole,
		CoachDescription: p.CoachDescription,
		DomainExpertise:  p.DomainExpertise,
		Gender:           p.Gender,
		UserNotes:        p.UserNotes,
	}
	f.profiles[profile.ID] = profile
	return profile, nil
}

func (f *fakeStore) GetByID(ctx context.Context, profileID int64) (*storage.CoachProfile, error) {
	p, ok := f.profiles[profileID]
	if !ok {
		return nil, herrors.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) ListByOwner(ctx context.Context, userID int64) ([]*storage.CoachProfile, error) {
	var out []*storage.CoachProfile
	for _, p := range f.profiles {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, profileID int64, p storage.UpdateProfileParams) (*storage.CoachProfile, error) {
	profile, ok := f.profiles[profileID]
	if !ok {
		return nil, herrors.ErrNotFound
	}
	if p.CoachName != nil {
		profile.CoachName = *p.CoachName
	}
	if p.CoachRole != nil {
		profile.CoachRole = *p.CoachRole
	}
	if p.Gender != nil {
		profile.Gender = *p.Gender
	}
	if p.UserNotes != nil {
		profile.UserNotes = *p.UserNotes
	}
	return profile, nil
}

func (f *fakeStore) AttachKnowledgeBase(ctx context.Context, profileID int64, content, filename string) (*storage.CoachProfile, error) {
	profile, ok := f.profiles[profileID]
	if !ok {
		return nil, herrors.ErrNotFound
	}
	profile.KBContent = content
	profile.KBFilename = filename
	return profile, nil
}

func newService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return NewService(store, logging.NewNopLogger()), store
}

func TestCreateNormalizesGender(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		gender string
		want   voice.Category
	}{
		{"female", voice.Female},
		{"f", voice.Female},
		{"woman", voice.Female},
		{"male", voice.Male},
		{"", voice.Male},
		{"robot", voice.Male},
	}
	for i, tt := range tests {
		p, err := svc.Create(context.Background(), ownerID, CreateParams{
			CoachName: fmt.Sprintf("Coach %d", i),
			CoachRole: "Mentor",
			Gender:    tt.gender,
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Gender, "gender %q", tt.gender)
	}
}

func TestCreateRequiresNameAndRole(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), ownerID, CreateParams{CoachRole: "Mentor"})
	assert.ErrorIs(t, err, herrors.ErrValidation)

	_, err = svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada"})
	assert.ErrorIs(t, err, herrors.ErrValidation)
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada", CoachRole: "Mentor"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada", CoachRole: "Mentor"})
	assert.ErrorIs(t, err, herrors.ErrConflict)
}

func TestCreateSurvivesBadKnowledgeBaseDocument(t *testing.T) {
	svc, _ := newService(t)

	p, err := svc.Create(context.Background(), ownerID, CreateParams{
		CoachName:        "Ada",
		CoachRole:        "Mentor",
		Document:         []byte("definitely not a pdf"),
		DocumentFilename: "notes.pdf",
	})

	require.NoError(t, err, "extraction failure must not fail the create")
	assert.Empty(t, p.KBContent)
	assert.Empty(t, p.KBFilename)
}

func TestUpdateNormalizesGender(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada", CoachRole: "Mentor"})
	require.NoError(t, err)

	gender := "WoMaN"
	updated, err := svc.Update(context.Background(), ownerID, p.ID, UpdateParams{Gender: &gender})

	require.NoError(t, err)
	assert.Equal(t, voice.Female, updated.Gender)
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada", CoachRole: "Mentor"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), ownerID+1, p.ID)
	assert.ErrorIs(t, err, herrors.ErrForbidden)

	_, err = svc.Get(context.Background(), ownerID, p.ID+99)
	assert.ErrorIs(t, err, herrors.ErrNotFound)
}

func TestAttachKnowledgeBaseRejectsBadDocument(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.Create(context.Background(), ownerID, CreateParams{CoachName: "Ada", CoachRole: "Mentor"})
	require.NoError(t, err)

	_, err = svc.AttachKnowledgeBase(context.Background(), ownerID, p.ID, []byte("not a pdf"), "x.pdf")
	assert.Error(t, err)
}
