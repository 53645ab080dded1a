package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/orghub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetBatch(ctx context.Context, userIDs []string) ([]domain.User, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]domain.User), args.Error(1)
}

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) ActiveForUsers(ctx context.Context, userIDs []string) ([]domain.Device, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDeviceStore) DeactivateByToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type mockNotificationStore struct{ mock.Mock }

func (m *mockNotificationStore) PutBatch(ctx context.Context, notifications []domain.Notification) error {
	return m.Called(ctx, notifications).Error(0)
}

type mockTokenSource struct{ mock.Mock }

func (m *mockTokenSource) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type mockPushClient struct{ mock.Mock }

func (m *mockPushClient) Send(ctx context.Context, accessToken, token, title, body string, data map[string]string) error {
	return m.Called(ctx, accessToken, token, title, body, data).Error(0)
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func newDispatcher(us *mockUserStore, ds *mockDeviceStore, ns *mockNotificationStore, ts *mockTokenSource, pc *mockPushClient) Service {
	deps := ServiceDeps{
		UserRepo:         us,
		DeviceRepo:       ds,
		NotificationRepo: ns,
	}
	// Interface fields stay nil unless a concrete mock is supplied.
	if ts != nil {
		deps.Tokens = ts
	}
	if pc != nil {
		deps.Push = pc
	}
	return NewService(deps)
}

func basePayload() domain.Payload {
	return domain.Payload{
		Category: domain.CategoryEvent,
		Title:    "Team offsite",
		Body:     "Friday at 10:00",
		URL:      ptr("/events/ev1"),
	}
}

func device(id, userID, token string) domain.Device {
	return domain.Device{DeviceID: id, UserID: userID, Token: token, Platform: domain.PlatformIOS, IsActive: true}
}

// --- Dispatch tests ---

func TestDispatch_EmptyRecipients_NoOp(t *testing.T) {
	us := &mockUserStore{}
	ns := &mockNotificationStore{}

	svc := newDispatcher(us, &mockDeviceStore{}, ns, nil, nil)
	res, err := svc.Dispatch(context.Background(), nil, basePayload())

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	us.AssertNotCalled(t, "GetBatch", mock.Anything, mock.Anything)
	ns.AssertNotCalled(t, "PutBatch", mock.Anything, mock.Anything)
}

func TestDispatch_UnknownCategory(t *testing.T) {
	svc := newDispatcher(&mockUserStore{}, &mockDeviceStore{}, &mockNotificationStore{}, nil, nil)
	_, err := svc.Dispatch(context.Background(), []string{"u1"}, domain.Payload{
		Category: "SOCIAL", Title: "t", Body: "b",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestDispatch_NoEligibleUsers_NothingRecorded(t *testing.T) {
	us := &mockUserStore{}
	ns := &mockNotificationStore{}
	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{
		{UserID: "u1", Preferences: &domain.NotificationPreferences{Push: ptr(false)}},
	}, nil)

	svc := newDispatcher(us, &mockDeviceStore{}, ns, nil, nil)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	ns.AssertNotCalled(t, "PutBatch", mock.Anything, mock.Anything)
}

func TestDispatch_RecordsOneRowPerEligibleUser(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	// u3 opted out of the events category; u1 and u2 remain eligible.
	us.On("GetBatch", mock.Anything, []string{"u1", "u2", "u3"}).Return([]domain.User{
		{UserID: "u1"},
		{UserID: "u2", Preferences: &domain.NotificationPreferences{Budget: ptr(false)}},
		{UserID: "u3", Preferences: &domain.NotificationPreferences{Events: ptr(false)}},
	}, nil)
	ns.On("PutBatch", mock.Anything, mock.MatchedBy(func(rows []domain.Notification) bool {
		return len(rows) == 2 && rows[0].UserID == "u1" && rows[1].UserID == "u2"
	})).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1", "u2"}).Return([]domain.Device{
		device("d1", "u1", "tok-a"),
		device("d2", "u1", "tok-b"),
		device("d3", "u2", "tok-c"),
	}, nil)
	ts.On("Token", mock.Anything).Return("bearer-1", nil)
	pc.On("Send", mock.Anything, "bearer-1", mock.Anything, "Team offsite", "Friday at 10:00", mock.Anything).Return(nil)

	svc := newDispatcher(us, ds, ns, ts, pc)
	res, err := svc.Dispatch(context.Background(), []string{"u1", "u2", "u3"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Eligible)
	assert.Equal(t, 2, res.Recorded)
	assert.Equal(t, 3, res.Devices)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 0, res.Failed)
	ns.AssertExpectations(t)
	pc.AssertNumberOfCalls(t, "Send", 3)
}

func TestDispatch_PushDataCarriesCategoryAndURL(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{device("d1", "u1", "tok-a")}, nil)
	ts.On("Token", mock.Anything).Return("bearer-1", nil)
	pc.On("Send", mock.Anything, "bearer-1", "tok-a", mock.Anything, mock.Anything,
		map[string]string{"event_id": "ev1", "category": "EVENT", "url": "/events/ev1"}).Return(nil)

	p := basePayload()
	p.Data = map[string]string{"event_id": "ev1"}

	svc := newDispatcher(us, ds, ns, ts, pc)
	_, err := svc.Dispatch(context.Background(), []string{"u1"}, p)

	require.NoError(t, err)
	pc.AssertExpectations(t)
}

func TestDispatch_RecordingFailurePropagates(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	storeErr := errors.New("dynamo error")
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(storeErr)

	svc := newDispatcher(us, ds, ns, nil, nil)
	_, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.Error(t, err)
	assert.True(t, errors.Is(err, storeErr))
	ds.AssertNotCalled(t, "ActiveForUsers", mock.Anything, mock.Anything)
}

func TestDispatch_NoDevices_InAppOnly(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{}, nil)

	svc := newDispatcher(us, ds, ns, ts, &mockPushClient{})
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Recorded)
	assert.Equal(t, 0, res.Sent)
	ts.AssertNotCalled(t, "Token", mock.Anything)
}

func TestDispatch_CredentialFailure_KeepsRecordedRows(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{device("d1", "u1", "tok-a")}, nil)
	ts.On("Token", mock.Anything).Return("", &domain.CredentialError{Temporary: true, Err: errors.New("503")})

	svc := newDispatcher(us, ds, ns, ts, pc)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Recorded)
	assert.Equal(t, 0, res.Sent)
	pc.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_UnregisteredToken_DeactivatedAndOthersContinue(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{
		device("d1", "u1", "tok-stale"),
		device("d2", "u1", "tok-live"),
	}, nil)
	ts.On("Token", mock.Anything).Return("bearer-1", nil)
	pc.On("Send", mock.Anything, "bearer-1", "tok-stale", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.DeliveryError{Token: "tok-stale", Unregistered: true, Err: errors.New("404")})
	pc.On("Send", mock.Anything, "bearer-1", "tok-live", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ds.On("DeactivateByToken", mock.Anything, "tok-stale").Return(nil)

	svc := newDispatcher(us, ds, ns, ts, pc)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Deactivated)
	ds.AssertExpectations(t)
}

func TestDispatch_TransientSendFailure_NotDeactivated(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{device("d1", "u1", "tok-a")}, nil)
	ts.On("Token", mock.Anything).Return("bearer-1", nil)
	pc.On("Send", mock.Anything, "bearer-1", "tok-a", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.DeliveryError{Token: "tok-a", Err: errors.New("500")})

	svc := newDispatcher(us, ds, ns, ts, pc)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Deactivated)
	ds.AssertNotCalled(t, "DeactivateByToken", mock.Anything, mock.Anything)
}

func TestDispatch_DeviceLoadFailure_KeepsRecordedRows(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device(nil), errors.New("dynamo error"))

	svc := newDispatcher(us, ds, ns, ts, &mockPushClient{})
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Recorded)
	ts.AssertNotCalled(t, "Token", mock.Anything)
}

func TestDispatch_PushNotConfigured_InAppOnly(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}

	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return([]domain.Device{device("d1", "u1", "tok-a")}, nil)

	svc := newDispatcher(us, ds, ns, nil, nil)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Recorded)
	assert.Equal(t, 0, res.Sent)
}

func TestDispatch_ManyDevices_AllOutcomesCounted(t *testing.T) {
	us := &mockUserStore{}
	ds := &mockDeviceStore{}
	ns := &mockNotificationStore{}
	ts := &mockTokenSource{}
	pc := &mockPushClient{}

	devices := make([]domain.Device, 0, 50)
	for i := 0; i < 50; i++ {
		devices = append(devices, device("d", "u1", "tok-"+string(rune('A'+i%26))+string(rune('a'+i/26))))
	}
	us.On("GetBatch", mock.Anything, []string{"u1"}).Return([]domain.User{{UserID: "u1"}}, nil)
	ns.On("PutBatch", mock.Anything, mock.Anything).Return(nil)
	ds.On("ActiveForUsers", mock.Anything, []string{"u1"}).Return(devices, nil)
	ts.On("Token", mock.Anything).Return("bearer-1", nil)
	pc.On("Send", mock.Anything, "bearer-1", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newDispatcher(us, ds, ns, ts, pc)
	res, err := svc.Dispatch(context.Background(), []string{"u1"}, basePayload())

	require.NoError(t, err)
	assert.Equal(t, 50, res.Devices)
	assert.Equal(t, 50, res.Sent)
	pc.AssertNumberOfCalls(t, "Send", 50)
}
