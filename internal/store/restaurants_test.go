package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acejarvis/cash-or-card/backend/internal/apperr"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

func TestRestaurantsListFilters(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()
	other := &models.Restaurant{
		Name:        "Banh Mi Boys",
		Address:     "392 Queen St W",
		City:        "Toronto",
		Category:    "sandwiches",
		CuisineTags: models.Tags{"vietnamese", "fusion"},
	}
	require.NoError(t, s.Restaurants.Create(ctx, other))
	_, err := s.Restaurants.Verify(ctx, other.ID, seed.Admin.ID, time.Now().UTC())
	require.NoError(t, err)

	all, err := s.Restaurants.List(ctx, models.RestaurantFilter{City: "toronto"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := s.Restaurants.List(ctx, models.RestaurantFilter{Search: "banh"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.Tags{"vietnamese", "fusion"}, found[0].CuisineTags)

	pending, err := s.Restaurants.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, seed.Restaurant.ID, pending[0].ID)

	limited, err := s.Restaurants.List(ctx, models.RestaurantFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRestaurantsUpdateAndDelete(t *testing.T) {
	s, seed := setup(t, 0)
	ctx := context.Background()

	phone := "416-555-0100"
	got, err := s.Restaurants.Update(ctx, seed.Restaurant.ID, models.RestaurantPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, got.Phone)
	assert.Equal(t, seed.Restaurant.Name, got.Name)

	_, err = s.Restaurants.Update(ctx, seed.Restaurant.ID, models.RestaurantPatch{})
	assert.True(t, apperr.IsValidation(err))

	ok, err := s.Restaurants.Delete(ctx, seed.Restaurant.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.Restaurants.Get(ctx, seed.Restaurant.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRatingsUpsert(t *testing.T) {
	s, seed := setup(t, 2)
	ctx := context.Background()
	rid := seed.Restaurant.ID

	require.NoError(t, s.Ratings.Upsert(ctx, &models.Rating{RestaurantID: rid, UserID: seed.Users[0].ID, Rating: 3}))
	require.NoError(t, s.Ratings.Upsert(ctx, &models.Rating{RestaurantID: rid, UserID: seed.Users[0].ID, Rating: 5, Comment: "better now"}))
	require.NoError(t, s.Ratings.Upsert(ctx, &models.Rating{RestaurantID: rid, UserID: seed.Users[1].ID, Rating: 4}))

	list, err := s.Ratings.ListByRestaurant(ctx, rid, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.NotEmpty(t, list[0].Username)

	mine, err := s.Ratings.Get(ctx, rid, seed.Users[0].ID)
	require.NoError(t, err)
	require.NotNil(t, mine)
	assert.Equal(t, 5, mine.Rating)
	assert.Equal(t, "better now", mine.Comment)

	none, err := s.Ratings.Get(ctx, rid, seed.Admin.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUsersLookup(t *testing.T) {
	s, seed := setup(t, 1)
	ctx := context.Background()

	u, err := s.Users.GetByEmail(ctx, seed.Users[0].Email)
	require.NoError(t, err)
	assert.Equal(t, seed.Users[0].ID, u.ID)

	_, err = s.Users.Get(ctx, 31337)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	dup := models.User{Username: "dup", Email: seed.Users[0].Email, Password: "x", Role: models.RoleUser}
	assert.ErrorIs(t, s.Users.Create(ctx, &dup), apperr.ErrConflict)
}

func TestUsersUpdate(t *testing.T) {
	s, seed := setup(t, 2)
	ctx := context.Background()
	id := seed.Users[0].ID

	name := "renamed"
	u, err := s.Users.Update(ctx, id, models.UserPatch{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Username)
	assert.Equal(t, seed.Users[0].Email, u.Email)

	taken := seed.Users[1].Email
	_, err = s.Users.Update(ctx, id, models.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.Users.Update(ctx, id, models.UserPatch{})
	assert.True(t, apperr.IsValidation(err))

	_, err = s.Users.Update(ctx, 31337, models.UserPatch{Username: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
