package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jetcharter/internal/catalog"
	"jetcharter/internal/events"
	"jetcharter/internal/identity"
	"jetcharter/internal/models"
	"jetcharter/internal/repository"
	"jetcharter/internal/validation"
	"jetcharter/internal/wizard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) user(args mock.Arguments) (*identity.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, clientID, email, password string) (*identity.User, error) {
	return m.user(m.Called(ctx, clientID, email, password))
}

func (m *MockProvider) CreateAccount(ctx context.Context, clientID, email, password string) (*identity.User, error) {
	return m.user(m.Called(ctx, clientID, email, password))
}

func (m *MockProvider) UpdateDisplayName(ctx context.Context, clientID, name string) (*identity.User, error) {
	return m.user(m.Called(ctx, clientID, name))
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockProvider) SignOut(ctx context.Context, clientID string) error {
	return m.Called(ctx, clientID).Error(0)
}

func (m *MockProvider) CurrentUser(ctx context.Context, clientID string) (*identity.User, error) {
	return m.user(m.Called(ctx, clientID))
}

func (m *MockProvider) VerifyToken(ctx context.Context, token string) (*identity.User, error) {
	return m.user(m.Called(ctx, token))
}

func (m *MockProvider) OnAuthStateChanged(listener identity.AuthStateListener) func() {
	m.Called(listener)
	return func() {}
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Enqueue(ctx context.Context, inquiry *models.Inquiry) error {
	return m.Called(ctx, inquiry).Error(0)
}

func newStates() (*StateService, *repository.MemoryStateRepository) {
	logger := zerolog.Nop()
	repo := repository.NewMemoryStateRepository(time.Hour)
	return NewStateService(repo, &logger), repo
}

func TestAuthService_SignIn(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	t.Run("InvalidFormSkipsProvider", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

		res, err := svc.SignIn(ctx, "sid", validation.SignInForm{Email: "bad", Password: "123"})
		require.NoError(t, err)
		assert.True(t, res.Invalid())
		assert.Equal(t, "Invalid email format", res.Errors[validation.FieldEmail])
		provider.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SuccessSignsSessionIn", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

		provider.On("SignIn", ctx, "sid", "jane@example.com", "secret123").
			Return(&identity.User{UID: "u1", Email: "jane@example.com"}, nil).Once()

		res, err := svc.SignIn(ctx, "sid", validation.SignInForm{Email: "jane@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.True(t, res.Session.SignedIn)
		assert.Equal(t, "jane", res.Session.Username)

		sess, err := states.Session(ctx, "sid")
		require.NoError(t, err)
		assert.True(t, sess.SignedIn)
		provider.AssertExpectations(t)
	})

	t.Run("ProviderErrorMapsToBanner", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

		provider.On("SignIn", ctx, "sid", "jane@example.com", "secret123").
			Return(nil, identity.NewError(identity.KindWrongPassword, "The password is invalid.")).Once()

		res, err := svc.SignIn(ctx, "sid", validation.SignInForm{Email: "jane@example.com", Password: "secret123"})
		require.NoError(t, err)
		assert.False(t, res.OK())
		assert.Equal(t, identity.KindWrongPassword, res.Kind)
		assert.Equal(t, "Incorrect password. Please try again.", res.Banner)
		assert.False(t, res.Session.SignedIn)
	})
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	form := validation.SignUpForm{
		FirstName:       "Jane",
		LastName:        "Doe",
		Email:           "jane@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	t.Run("SetsDisplayName", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.MemberSignUp, &logger)

		provider.On("CreateAccount", ctx, "sid", "jane@example.com", "secret1").
			Return(&identity.User{UID: "u1", Email: "jane@example.com"}, nil).Once()
		provider.On("UpdateDisplayName", ctx, "sid", "Jane Doe").
			Return(&identity.User{UID: "u1", Email: "jane@example.com", DisplayName: "Jane Doe"}, nil).Once()

		res, err := svc.SignUp(ctx, "sid", form)
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Equal(t, "Jane Doe", res.Session.Username)
		provider.AssertExpectations(t)
	})

	t.Run("EmailInUse", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.MemberSignUp, &logger)

		provider.On("CreateAccount", ctx, "sid", "jane@example.com", "secret1").
			Return(nil, identity.NewError(identity.KindEmailAlreadyInUse, "")).Once()

		res, err := svc.SignUp(ctx, "sid", form)
		require.NoError(t, err)
		assert.Equal(t, "This email is already in use. Please try a different one.", res.Banner)
		provider.AssertNotCalled(t, "UpdateDisplayName", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ProfileUpdateFailureKeepsSignIn", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.MemberSignUp, &logger)

		provider.On("CreateAccount", ctx, "sid", "jane@example.com", "secret1").
			Return(&identity.User{UID: "u1", Email: "jane@example.com"}, nil).Once()
		provider.On("UpdateDisplayName", ctx, "sid", "Jane Doe").
			Return(nil, errors.New("network down")).Once()

		res, err := svc.SignUp(ctx, "sid", form)
		require.NoError(t, err)
		assert.Equal(t, "An error occurred during sign up: network down", res.Banner)
		assert.True(t, res.Session.SignedIn)
		assert.Equal(t, "jane", res.Session.Username)
	})

	t.Run("ClassicRulesRequireUsername", func(t *testing.T) {
		provider := new(MockProvider)
		states, _ := newStates()
		svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

		res, err := svc.SignUp(ctx, "sid", form)
		require.NoError(t, err)
		assert.True(t, res.Errors.Has(validation.FieldUsername))
	})
}

func TestAuthService_PasswordResetAndSignOut(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	provider := new(MockProvider)
	states, _ := newStates()
	svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

	provider.On("SendPasswordReset", ctx, "jane@example.com").Return(nil).Once()
	res, err := svc.SendPasswordReset(ctx, "sid", "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, PasswordResetSent, res.Banner)

	provider.On("SendPasswordReset", ctx, "nobody@example.com").
		Return(identity.NewError(identity.KindUserNotFound, "")).Once()
	res, err = svc.SendPasswordReset(ctx, "sid", "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "No account found with this email", res.Banner)

	res, err = svc.SendPasswordReset(ctx, "sid", "")
	require.NoError(t, err)
	assert.Equal(t, "Please enter your email to reset password", res.Errors[validation.FieldEmail])

	provider.On("SignIn", ctx, "sid", "jane@example.com", "secret123").
		Return(&identity.User{UID: "u1", Email: "jane@example.com"}, nil).Once()
	_, err = svc.SignIn(ctx, "sid", validation.SignInForm{Email: "jane@example.com", Password: "secret123"})
	require.NoError(t, err)

	provider.On("SignOut", ctx, "sid").Return(errors.New("provider unavailable")).Once()
	res, err = svc.SignOut(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, res.Session.SignedIn)
	assert.Empty(t, res.Session.Username)
	provider.AssertExpectations(t)
}

func TestAuthService_CurrentReconciles(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	provider := new(MockProvider)
	states, _ := newStates()
	svc := NewAuthService(provider, states, validation.ClassicSignUp, &logger)

	provider.On("CurrentUser", ctx, "sid").
		Return(&identity.User{UID: "u1", Email: "ace@example.com", DisplayName: "Ace"}, nil).Once()
	res, err := svc.Current(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, res.Session.SignedIn)
	assert.Equal(t, "Ace", res.Session.Username)

	provider.On("CurrentUser", ctx, "sid").Return(nil, nil).Once()
	res, err = svc.Current(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, res.Session.SignedIn)
}

func newBookingService(t *testing.T) (*BookingService, *events.EventBus) {
	t.Helper()
	logger := zerolog.Nop()
	states, _ := newStates()
	bus := events.NewEventBus()
	svc := NewBookingService(states, catalog.DefaultFleet(), bus, &logger)
	svc.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	return svc, bus
}

func TestBookingService_FullFlow(t *testing.T) {
	ctx := context.Background()
	svc, bus := newBookingService(t)

	var confirmed []events.BookingRequestPayload
	bus.Subscribe(events.EventBookingRequestConfirmed, func(e *events.Event) error {
		var p events.BookingRequestPayload
		require.NoError(t, e.Decode(&p))
		confirmed = append(confirmed, p)
		return nil
	})

	view, err := svc.View(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.StageFlightDetails, view.Stage)

	_, err = svc.UpdateDraft(ctx, "sid", map[string]string{
		models.FieldDeparture:  "JFK",
		models.FieldArrival:    "London, United Kingdom (LHR)",
		models.FieldDate:       "2026-02-01",
		models.FieldPassengers: "4",
	})
	require.NoError(t, err)

	view, err = svc.Next(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.StageAircraftSelection, view.Stage)
	assert.InDelta(t, 2991, view.DistanceNM, 2)
	require.Len(t, view.Options, 2)

	view, err = svc.Next(ctx, "sid")
	assert.ErrorIs(t, err, wizard.ErrBlocked)
	assert.Equal(t, "Please select an aircraft", view.Errors[models.FieldSelectedAircraft])

	view, err = svc.SelectAircraft(ctx, "sid", "1")
	require.NoError(t, err)
	assert.Equal(t, "1", view.Draft.SelectedAircraftID)
	assert.Empty(t, view.Errors)

	_, err = svc.Next(ctx, "sid")
	require.NoError(t, err)

	view, err = svc.Confirm(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.StageConfirmed, view.Stage)
	assert.Equal(t, wizard.Acknowledgement, view.Message)
	assert.Equal(t, models.BookingDraft{}, view.Draft)

	require.Len(t, confirmed, 1)
	assert.Equal(t, "JFK", confirmed[0].Departure)
	assert.Equal(t, "1", confirmed[0].AircraftID)
	assert.Equal(t, 4, confirmed[0].Passengers)

	_, err = svc.Next(ctx, "sid")
	assert.ErrorIs(t, err, wizard.ErrTerminal)

	view, err = svc.Reset(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.StageFlightDetails, view.Stage)
	assert.Equal(t, 1, view.Draft.Passengers)
}

func TestBookingService_BlockedStateIsPersisted(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBookingService(t)

	view, err := svc.Next(ctx, "sid")
	assert.ErrorIs(t, err, wizard.ErrBlocked)
	assert.Equal(t, models.StageFlightDetails, view.Stage)
	assert.True(t, view.Errors.Has(models.FieldDeparture))

	view, err = svc.View(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, view.Errors.Has(models.FieldDeparture))

	view, err = svc.UpdateDraft(ctx, "sid", map[string]string{models.FieldDeparture: "JFK"})
	require.NoError(t, err)
	assert.False(t, view.Errors.Has(models.FieldDeparture))
	assert.True(t, view.Errors.Has(models.FieldArrival))
}

func TestBookingService_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newBookingService(t)

	_, err := svc.UpdateDraft(ctx, "sid", map[string]string{"cardNumber": "4111"})
	assert.ErrorIs(t, err, wizard.ErrUnknownField)

	_, err = svc.SelectAircraft(ctx, "sid", "1")
	assert.ErrorIs(t, err, wizard.ErrWrongStage)

	_, err = svc.Confirm(ctx, "sid")
	assert.ErrorIs(t, err, wizard.ErrWrongStage)

	view, err := svc.Back(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.StageFlightDetails, view.Stage)
}

func TestContactService_Submit(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	form := validation.ContactForm{
		Name:    "Jane",
		Email:   "jane@example.com",
		Subject: "Charter",
		Message: "Need a jet",
	}

	t.Run("Invalid", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		svc := NewContactService(dispatcher, events.NewEventBus(), &logger)
		res, err := svc.Submit(ctx, "sid", validation.ContactForm{})
		require.NoError(t, err)
		assert.Len(t, res.Errors, 4)
		dispatcher.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
	})

	t.Run("Enqueued", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		bus := events.NewEventBus()
		var received int
		bus.Subscribe(events.EventInquiryReceived, func(*events.Event) error { received++; return nil })

		dispatcher.On("Enqueue", ctx, mock.MatchedBy(func(i *models.Inquiry) bool {
			return i.InquiryType == models.InquiryGeneral && i.SessionID == "sid" && i.ID != ""
		})).Return(nil).Once()

		svc := NewContactService(dispatcher, bus, &logger)
		res, err := svc.Submit(ctx, "sid", form)
		require.NoError(t, err)
		assert.Equal(t, ContactReply, res.Message)
		assert.NotEmpty(t, res.InquiryID)
		assert.Equal(t, 1, received)
		dispatcher.AssertExpectations(t)
	})

	t.Run("QueueFull", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("Enqueue", ctx, mock.Anything).Return(errors.New("queue full")).Once()
		svc := NewContactService(dispatcher, nil, &logger)
		_, err := svc.Submit(ctx, "sid", form)
		assert.Error(t, err)
	})

	t.Run("NoDispatcher", func(t *testing.T) {
		svc := NewContactService(nil, nil, &logger)
		res, err := svc.Submit(ctx, "sid", form)
		require.NoError(t, err)
		assert.Equal(t, ContactReply, res.Message)
	})
}
