package trip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTrip(ctx context.Context, trip types.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockRepository) GetTrip(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error) {
	args := m.Called(ctx, tripID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Trip), args.Error(1)
}

func (m *MockRepository) ListTrips(ctx context.Context, userID uuid.UUID) ([]types.TripSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TripSummary), args.Error(1)
}

func (m *MockRepository) UpdateTripDetails(ctx context.Context, tripID, userID uuid.UUID, name string, style types.TravelStyle) (time.Time, error) {
	args := m.Called(ctx, tripID, userID, name, style)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockRepository) SaveTripState(ctx context.Context, tripID, userID uuid.UUID, state types.TripAggregate) (time.Time, error) {
	args := m.Called(ctx, tripID, userID, state)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockRepository) DeleteTrip(ctx context.Context, tripID, userID uuid.UUID) error {
	args := m.Called(ctx, tripID, userID)
	return args.Error(0)
}

func testPlannerConfig() config.PlannerConfig {
	return config.PlannerConfig{
		MaxDays:            4,
		DefaultDays:        3,
		SessionTTL:         time.Hour,
		ConfirmationTTL:    time.Minute,
		DefaultTravelStyle: types.TravelStyleMidRange,
		TravelStyles: map[types.TravelStyle]types.BaseCosts{
			types.TravelStyleBudget:   {Accommodation: 40, Food: 25, Transport: 8, Activities: 15},
			types.TravelStyleMidRange: {Accommodation: 120, Food: 50, Transport: 15, Activities: 30},
		},
	}
}

// Helper to setup service with mock repository
func setupTripServiceTest(t *testing.T) (*ServiceImpl, *MockRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockRepo := new(MockRepository)
	service := NewServiceImpl(mockRepo, testPlannerConfig(), testMetrics(t), logger)
	return service, mockRepo
}

func storedTrip(userID uuid.UUID, days int) *types.Trip {
	return &types.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        "Lisbon",
		TravelStyle: types.TravelStyleBudget,
		State:       types.TripAggregate{Days: planner.DefaultDays(days), SavedLocations: []types.SavedLocation{}},
		UpdatedAt:   time.Now().Add(-time.Hour),
	}
}

// openTrip registers trip in the mock and opens its session.
func openTrip(t *testing.T, service *ServiceImpl, mockRepo *MockRepository, trip *types.Trip) *SessionState {
	t.Helper()
	mockRepo.On("GetTrip", mock.Anything, trip.ID, trip.UserID).Return(trip, nil)
	state, err := service.OpenSession(context.Background(), trip.UserID, trip.ID)
	require.NoError(t, err)
	return state
}

func TestServiceImpl_CreateTrip(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success with default style and days", func(t *testing.T) {
		mockRepo.On("CreateTrip", mock.Anything, mock.MatchedBy(func(tr types.Trip) bool {
			return tr.UserID == userID && tr.Name == "Porto" &&
				tr.TravelStyle == types.TravelStyleMidRange && len(tr.State.Days) == 3
		})).Return(nil).Once()

		trip, err := service.CreateTrip(ctx, userID, types.CreateTripRequest{Name: "  Porto "})
		require.NoError(t, err)
		assert.Equal(t, "Porto", trip.Name)
		assert.NotEqual(t, uuid.Nil, trip.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("invalid requests", func(t *testing.T) {
		_, err := service.CreateTrip(ctx, userID, types.CreateTripRequest{Name: " "})
		assert.ErrorIs(t, err, types.ErrInvalidTrip)

		_, err = service.CreateTrip(ctx, userID, types.CreateTripRequest{Name: "x", TravelStyle: "backpacker"})
		assert.ErrorIs(t, err, types.ErrInvalidTrip)
	})

	t.Run("repository error", func(t *testing.T) {
		repoErr := errors.New("insert failed")
		mockRepo.On("CreateTrip", mock.Anything, mock.Anything).Return(repoErr).Once()

		_, err := service.CreateTrip(ctx, userID, types.CreateTripRequest{Name: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, repoErr)
		assert.Contains(t, err.Error(), "failed to create trip")
	})
}

func TestServiceImpl_UpdateTrip(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)

	saved := time.Now()
	mockRepo.On("UpdateTripDetails", mock.Anything, trip.ID, userID, "Lisbon", types.TravelStyleLuxury).Return(saved, nil).Once()

	luxury := types.TravelStyleLuxury
	got, err := service.UpdateTrip(ctx, userID, trip.ID, types.UpdateTripRequest{TravelStyle: &luxury})
	require.NoError(t, err)
	assert.Equal(t, types.TravelStyleLuxury, got.TravelStyle)

	state, err := service.GetSession(ctx, userID, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, types.TravelStyleLuxury, state.TravelStyle)

	empty := ""
	_, err = service.UpdateTrip(ctx, userID, trip.ID, types.UpdateTripRequest{Name: &empty})
	assert.ErrorIs(t, err, types.ErrInvalidTrip)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_SessionLifecycle(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)

	t.Run("no session yet", func(t *testing.T) {
		_, err := service.GetSession(ctx, userID, trip.ID)
		assert.ErrorIs(t, err, types.ErrSessionNotFound)
		_, err = service.SaveSession(ctx, userID, trip.ID)
		assert.ErrorIs(t, err, types.ErrSessionNotFound)
		assert.ErrorIs(t, service.DiscardSession(ctx, userID, trip.ID), types.ErrSessionNotFound)
	})

	mockRepo.On("GetTrip", mock.Anything, trip.ID, userID).Return(trip, nil)

	t.Run("mutations open the session once", func(t *testing.T) {
		res, err := service.AddDay(ctx, userID, trip.ID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 3, res.Day.DayNumber)
		assert.True(t, res.State.Dirty)

		res, err = service.AddItem(ctx, userID, trip.ID, 1, types.CategoryFood)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Len(t, res.State.Days[0].CustomItems, 1)

		mockRepo.AssertNumberOfCalls(t, "GetTrip", 1)
	})

	t.Run("save persists the working copy", func(t *testing.T) {
		saved := time.Now()
		mockRepo.On("SaveTripState", mock.Anything, trip.ID, userID, mock.MatchedBy(func(agg types.TripAggregate) bool {
			return len(agg.Days) == 3 && len(agg.Days[0].CustomItems) == 1
		})).Return(saved, nil).Once()

		state, err := service.SaveSession(ctx, userID, trip.ID)
		require.NoError(t, err)
		assert.False(t, state.Dirty)
		assert.Equal(t, saved, state.SavedAt)
	})

	t.Run("failed save keeps the session dirty", func(t *testing.T) {
		_, err := service.AddDay(ctx, userID, trip.ID)
		require.NoError(t, err)

		repoErr := errors.New("write failed")
		mockRepo.On("SaveTripState", mock.Anything, trip.ID, userID, mock.Anything).Return(time.Time{}, repoErr).Once()
		_, err = service.SaveSession(ctx, userID, trip.ID)
		assert.ErrorIs(t, err, repoErr)

		state, err := service.GetSession(ctx, userID, trip.ID)
		require.NoError(t, err)
		assert.True(t, state.Dirty)
	})

	t.Run("discard drops unsaved edits", func(t *testing.T) {
		require.NoError(t, service.DiscardSession(ctx, userID, trip.ID))
		_, err := service.GetSession(ctx, userID, trip.ID)
		assert.ErrorIs(t, err, types.ErrSessionNotFound)

		state, err := service.OpenSession(ctx, userID, trip.ID)
		require.NoError(t, err)
		assert.Len(t, state.Days, 2)
		assert.False(t, state.Dirty)
		mockRepo.AssertNumberOfCalls(t, "GetTrip", 2)
	})

	t.Run("other users cannot see the session", func(t *testing.T) {
		stranger := uuid.New()
		_, err := service.GetSession(ctx, stranger, trip.ID)
		assert.ErrorIs(t, err, types.ErrSessionNotFound)
		_, err = service.AddDay(ctx, stranger, trip.ID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestServiceImpl_LoadErrors(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID, tripID := uuid.New(), uuid.New()

	mockRepo.On("GetTrip", mock.Anything, tripID, userID).Return(nil, types.ErrNotFound)

	_, err := service.AddDay(ctx, userID, tripID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = service.Snapshot(ctx, userID, tripID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestServiceImpl_DaysAndItems(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 3)
	openTrip(t, service, mockRepo, trip)

	t.Run("capacity errors leave state unchanged", func(t *testing.T) {
		_, err := service.AddDay(ctx, userID, trip.ID)
		require.NoError(t, err)
		_, err = service.AddDay(ctx, userID, trip.ID)
		assert.ErrorIs(t, err, types.ErrMaxDaysReached)
		_, err = service.DuplicateDay(ctx, userID, trip.ID, 1)
		assert.ErrorIs(t, err, types.ErrMaxDaysReached)

		state, err := service.GetSession(ctx, userID, trip.ID)
		require.NoError(t, err)
		assert.Len(t, state.Days, 4)
	})

	t.Run("referential misses are not errors", func(t *testing.T) {
		before, err := service.GetSession(ctx, userID, trip.ID)
		require.NoError(t, err)

		res, err := service.DeleteItem(ctx, userID, trip.ID, 1, "missing")
		require.NoError(t, err)
		assert.False(t, res.Applied)

		res, err = service.RemoveDay(ctx, userID, trip.ID, 9)
		require.NoError(t, err)
		assert.False(t, res.Applied)

		res, err = service.AddItem(ctx, userID, trip.ID, 9, types.CategoryFood)
		require.NoError(t, err)
		assert.False(t, res.Applied)

		assert.Equal(t, before.Version, res.State.Version)
	})

	t.Run("item edits", func(t *testing.T) {
		res, err := service.AddItem(ctx, userID, trip.ID, 2, types.CategoryActivities)
		require.NoError(t, err)
		itemID := res.Item.ID

		name := "Castle"
		amount := types.Money(1500)
		res, err = service.UpdateItem(ctx, userID, trip.ID, 2, itemID, types.ItemPatch{
			Name:     &name,
			Amount:   &amount,
			TimeSlot: &types.TimeSlot{StartTime: "10:00"},
		})
		require.NoError(t, err)
		require.True(t, res.Applied)
		assert.Equal(t, "Castle", res.Item.Name)

		bad := "25:00"
		_, err = service.UpdateItem(ctx, userID, trip.ID, 2, itemID, types.ItemPatch{TimeSlot: &types.TimeSlot{StartTime: bad}})
		assert.ErrorIs(t, err, types.ErrInvalidTime)

		items, err := service.ListItems(ctx, userID, trip.ID, 2, true)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "10:00", items[0].StartTime())

		_, err = service.ListItems(ctx, userID, trip.ID, 12, false)
		assert.ErrorIs(t, err, types.ErrNotFound)

		res, err = service.DeleteItem(ctx, userID, trip.ID, 2, itemID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
	})

	t.Run("remove and update day", func(t *testing.T) {
		dayName := "Sintra"
		res, err := service.UpdateDay(ctx, userID, trip.ID, 2, types.DayPatch{DayName: &dayName})
		require.NoError(t, err)
		assert.Equal(t, "Sintra", res.Day.DayName)

		res, err = service.RemoveDay(ctx, userID, trip.ID, 1)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, "Sintra", res.State.Days[0].DayName)
		assert.Equal(t, 1, res.State.Days[0].DayNumber)
	})
}

func TestServiceImpl_DragAndView(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)

	res, err := service.AddItem(ctx, userID, trip.ID, 1, types.CategoryFood)
	require.NoError(t, err)
	itemID := res.Item.ID

	st, err := service.DragStart(ctx, userID, trip.ID, itemID)
	require.NoError(t, err)
	assert.True(t, st.Dragging)
	assert.Equal(t, itemID, st.ActiveID)

	st, err = service.DragOver(ctx, userID, trip.ID, planner.DayTabDropZoneID(2))
	require.NoError(t, err)
	assert.True(t, st.CanDrop)
	assert.Equal(t, 2, st.TargetDay)

	res, err = service.DragEnd(ctx, userID, trip.ID, DragRequest{ActiveID: itemID, OverID: planner.DayTabDropZoneID(2)})
	require.NoError(t, err)
	require.True(t, res.Applied)
	assert.Equal(t, planner.MoveCrossDay, res.Move.Kind)
	assert.Empty(t, res.State.Days[0].CustomItems)
	assert.Len(t, res.State.Days[1].CustomItems, 1)

	t.Run("time-aware mode pins timed items", func(t *testing.T) {
		_, err := service.UpdateItem(ctx, userID, trip.ID, 2, itemID, types.ItemPatch{TimeSlot: &types.TimeSlot{StartTime: "09:00"}})
		require.NoError(t, err)

		on, day := true, 2
		res, err := service.SetView(ctx, userID, trip.ID, ViewRequest{ActiveDay: &day, TimeAware: &on})
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 2, res.State.ActiveDay)
		assert.True(t, res.State.TimeAware)

		st, err := service.DragStart(ctx, userID, trip.ID, itemID)
		require.NoError(t, err)
		assert.False(t, st.Dragging)
	})

	t.Run("unknown active day is not applied", func(t *testing.T) {
		day := 7
		res, err := service.SetView(ctx, userID, trip.ID, ViewRequest{ActiveDay: &day})
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Equal(t, 2, res.State.ActiveDay)
	})
}

func addLocation(t *testing.T, service *ServiceImpl, trip *types.Trip, name string) types.SavedLocation {
	t.Helper()
	res, err := service.AddLocation(context.Background(), trip.UserID, trip.ID, types.SavedLocation{
		Name:     name,
		Category: types.SavedLocationAccommodation,
		Location: types.GeoLocation{Lat: 38.71, Lon: -9.14, Address: "Lisbon"},
	})
	require.NoError(t, err)
	require.True(t, res.Applied)
	return *res.Location
}

func TestServiceImpl_PromoteLocation(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 3)
	openTrip(t, service, mockRepo, trip)

	hotelA := addLocation(t, service, trip, "Hotel A")

	t.Run("decline leaves state unchanged", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotelA.ID)
		require.NoError(t, err)
		require.NotNil(t, res.Pending)
		assert.False(t, res.Applied)
		assert.Equal(t, ConfirmPromotePrimary, res.Pending.Kind)
		assert.Equal(t, 6, res.Pending.AffectedItems)
		assert.Contains(t, res.Pending.Message, "Hotel A")

		res, err = service.ResolveConfirmation(ctx, userID, trip.ID, res.Pending.Token, false)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		for _, d := range res.State.Days {
			assert.Empty(t, d.CustomItems)
		}
	})

	t.Run("accept fills every day", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotelA.ID)
		require.NoError(t, err)
		token := res.Pending.Token

		res, err = service.ResolveConfirmation(ctx, userID, trip.ID, token, true)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 6, res.Propagated)
		assert.Equal(t, planner.TransitionFillAllDays, res.Transition.Kind)
		for _, d := range res.State.Days {
			assert.Len(t, d.CustomItems, 2)
		}

		_, err = service.ResolveConfirmation(ctx, userID, trip.ID, token, true)
		assert.ErrorIs(t, err, types.ErrConfirmationNotFound)
	})

	t.Run("already primary needs no confirmation", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotelA.ID)
		require.NoError(t, err)
		assert.Nil(t, res.Pending)
		assert.False(t, res.Applied)
	})

	t.Run("retarget rewrites auto-filled items", func(t *testing.T) {
		hotelB := addLocation(t, service, trip, "Hotel B")
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotelB.ID)
		require.NoError(t, err)
		assert.Equal(t, planner.TransitionRetarget, res.Pending.Transition.Kind)

		res, err = service.ResolveConfirmation(ctx, userID, trip.ID, res.Pending.Token, true)
		require.NoError(t, err)
		for _, d := range res.State.Days {
			for _, it := range d.CustomItems {
				assert.True(t, it.Provenance.FromSource(hotelB.ID))
				assert.Contains(t, it.Name, "Hotel B")
			}
		}
	})

	t.Run("unknown location", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, "missing")
		require.NoError(t, err)
		assert.Nil(t, res.Pending)
		assert.False(t, res.Applied)
	})
}

func TestServiceImpl_ConfirmationStaleness(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)
	hotel := addLocation(t, service, trip, "Hotel A")

	t.Run("edit after request makes it stale", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
		require.NoError(t, err)
		token := res.Pending.Token

		_, err = service.AddDay(ctx, userID, trip.ID)
		require.NoError(t, err)

		_, err = service.ResolveConfirmation(ctx, userID, trip.ID, token, true)
		assert.ErrorIs(t, err, types.ErrConfirmationStale)

		state, err := service.GetSession(ctx, userID, trip.ID)
		require.NoError(t, err)
		for _, d := range state.Days {
			assert.Empty(t, d.CustomItems)
		}
	})

	t.Run("token is bound to its trip and user", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
		require.NoError(t, err)

		_, err = service.ResolveConfirmation(ctx, uuid.New(), trip.ID, res.Pending.Token, true)
		assert.ErrorIs(t, err, types.ErrConfirmationNotFound)
		_, err = service.ResolveConfirmation(ctx, userID, uuid.New(), res.Pending.Token, true)
		assert.ErrorIs(t, err, types.ErrConfirmationNotFound)
	})

	t.Run("discarded session invalidates tokens", func(t *testing.T) {
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
		require.NoError(t, err)
		token := res.Pending.Token

		require.NoError(t, service.DiscardSession(ctx, userID, trip.ID))

		_, err = service.ResolveConfirmation(ctx, userID, trip.ID, token, true)
		assert.ErrorIs(t, err, types.ErrConfirmationStale)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := service.ResolveConfirmation(ctx, userID, trip.ID, "nope", true)
		assert.ErrorIs(t, err, types.ErrConfirmationNotFound)
	})
}

func TestServiceImpl_DeleteLocation(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)

	t.Run("no dependents deletes directly", func(t *testing.T) {
		loc := addLocation(t, service, trip, "Cafe")
		res, err := service.DeleteLocation(ctx, userID, trip.ID, loc.ID)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Nil(t, res.Pending)
		assert.Empty(t, res.State.SavedLocations)
	})

	t.Run("dependents require confirmation", func(t *testing.T) {
		hotel := addLocation(t, service, trip, "Hotel A")
		res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
		require.NoError(t, err)
		_, err = service.ResolveConfirmation(ctx, userID, trip.ID, res.Pending.Token, true)
		require.NoError(t, err)

		res, err = service.DeleteLocation(ctx, userID, trip.ID, hotel.ID)
		require.NoError(t, err)
		require.NotNil(t, res.Pending)
		assert.Equal(t, ConfirmDeleteLocation, res.Pending.Kind)
		assert.Equal(t, 4, res.Pending.AffectedItems)
		assert.Len(t, res.State.SavedLocations, 1)

		res, err = service.ResolveConfirmation(ctx, userID, trip.ID, res.Pending.Token, true)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 4, res.Propagated)
		assert.Empty(t, res.State.SavedLocations)
		for _, d := range res.State.Days {
			assert.Empty(t, d.CustomItems)
		}
	})

	t.Run("missing location", func(t *testing.T) {
		res, err := service.DeleteLocation(ctx, userID, trip.ID, "missing")
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Nil(t, res.Pending)
	})
}

func TestServiceImpl_UpdateAndDemoteLocation(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)

	hotel := addLocation(t, service, trip, "Hotel A")
	res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
	require.NoError(t, err)
	_, err = service.ResolveConfirmation(ctx, userID, trip.ID, res.Pending.Token, true)
	require.NoError(t, err)

	name := "Grand Hotel"
	res, err = service.UpdateLocation(ctx, userID, trip.ID, hotel.ID, types.SavedLocationPatch{Name: &name})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 4, res.Propagated)

	_, err = service.UpdateLocation(ctx, userID, trip.ID, hotel.ID, types.SavedLocationPatch{Name: ptr("  ")})
	assert.ErrorIs(t, err, types.ErrInvalidLocation)

	res, err = service.DemoteLocation(ctx, userID, trip.ID, hotel.ID)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.False(t, res.Location.IsPrimary)
	assert.Len(t, res.State.Days[0].CustomItems, 2)

	res, err = service.DemoteLocation(ctx, userID, trip.ID, hotel.ID)
	require.NoError(t, err)
	assert.False(t, res.Applied)
}

func TestServiceImpl_SnapshotAndViews(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	mockRepo.On("GetTrip", mock.Anything, trip.ID, userID).Return(trip, nil)

	snap, err := service.Snapshot(ctx, userID, trip.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Trip.State.Days, 2)
	assert.Equal(t, 40.0, snap.BaseCosts.Accommodation)

	_, err = service.AddDay(ctx, userID, trip.ID)
	require.NoError(t, err)

	snap, err = service.Snapshot(ctx, userID, trip.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Trip.State.Days, 3)

	costs, err := service.Costs(ctx, userID, trip.ID)
	require.NoError(t, err)
	// budget: 40 + 25 + 8 + 15 per day
	assert.Equal(t, types.Money(3*8800), costs.TripTotal)

	dist, err := service.Distances(ctx, userID, trip.ID, false)
	require.NoError(t, err)
	assert.Len(t, dist, 3)
}

func TestServiceImpl_DeleteTrip(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)

	mockRepo.On("DeleteTrip", mock.Anything, trip.ID, userID).Return(nil).Once()
	require.NoError(t, service.DeleteTrip(ctx, userID, trip.ID))

	_, err := service.GetSession(ctx, userID, trip.ID)
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
	mockRepo.AssertExpectations(t)
}

func TestServiceImpl_ConcurrentEditsAreSerialized(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 1)
	mockRepo.On("GetTrip", mock.Anything, trip.ID, userID).Return(trip, nil)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.AddItem(ctx, userID, trip.ID, 1, types.CategoryOther)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := service.GetSession(ctx, userID, trip.ID)
	require.NoError(t, err)
	assert.Len(t, state.Days[0].CustomItems, n)
	assert.Equal(t, uint64(n), state.Version)
	mockRepo.AssertNumberOfCalls(t, "GetTrip", 1)
}

func ptr[T any](v T) *T { return &v }

func TestServiceImpl_ConfirmationResolvedOnce(t *testing.T) {
	service, mockRepo := setupTripServiceTest(t)
	ctx := context.Background()
	userID := uuid.New()
	trip := storedTrip(userID, 2)
	openTrip(t, service, mockRepo, trip)
	hotel := addLocation(t, service, trip, "Hotel A")

	res, err := service.PromoteLocation(ctx, userID, trip.ID, hotel.ID)
	require.NoError(t, err)
	token := res.Pending.Token

	const resolvers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		resolved int
		notFound int
	)
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			_, err := service.ResolveConfirmation(ctx, userID, trip.ID, token, accept)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				resolved++
			case errors.Is(err, types.ErrConfirmationNotFound):
				notFound++
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.Equal(t, 1, resolved)
	assert.Equal(t, resolvers-1, notFound)
}
