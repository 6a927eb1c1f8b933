package booking

import (
	"context"
	"strings"
	"testing"
	"time"

	"medichat/models"
	"medichat/services/appointment"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	controller *Controller
	gateway    *fakeGateway
	repo       *memoryRepo
	flows      FlowStore
	cache      *AppointmentCache
	notifier   *countingNotifier
	poller     *StatusPoller
}

func newTestEnv(t *testing.T, gateway *fakeGateway) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	repo := newMemoryRepo()
	flows := NewRedisFlowStore(client, time.Minute)
	cache := NewAppointmentCache(client)
	notifier := &countingNotifier{}
	poller := NewStatusPoller(gateway, repo, cache, notifier, 5*time.Millisecond, 50*time.Millisecond)
	t.Cleanup(poller.Stop)

	return &testEnv{
		controller: NewController(gateway, repo, flows, cache, poller),
		gateway:    gateway,
		repo:       repo,
		flows:      flows,
		cache:      cache,
		notifier:   notifier,
		poller:     poller,
	}
}

func seedConsultation(t *testing.T, env *testEnv, userID string) string {
	t.Helper()
	first := models.Message{ID: "m1", Role: models.RoleUser, Content: "I have chest pain", Timestamp: time.Now()}
	id, err := env.repo.Create(context.Background(), userID, &first)
	require.NoError(t, err)
	return id
}

func twoDoctors() []models.Doctor {
	return []models.Doctor{
		{ID: "507f1f77bcf86cd799439011", Name: "Dr. Adams", Specialization: "Cardiology"},
		{ID: "507f1f77bcf86cd799439012", FirstName: "Grace", LastName: "Okafor"},
	}
}

func TestStartHappyPath(t *testing.T) {
	gateway := &fakeGateway{authenticated: true, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	reply, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	assert.Equal(t, models.StepSelectingDoctor, reply.Step)
	require.Len(t, reply.Actions, 2)
	assert.Equal(t, "select_doctor", reply.Actions[0].Type)
	assert.Equal(t, "Dr. Adams", reply.Actions[0].Label)
	assert.Equal(t, "Grace Okafor", reply.Actions[1].Label)

	// The user's intent is persisted before the doctor list prompt.
	contents := env.repo.messageContents(id)
	require.GreaterOrEqual(t, len(contents), 3)
	assert.Contains(t, contents[1], "book a doctor appointment")
}

func TestStartWithoutTokenRequiresLogin(t *testing.T) {
	gateway := &fakeGateway{authenticated: false}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	reply, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	assert.True(t, reply.LoginRequired)
	assert.Equal(t, models.StepIdle, reply.Step)

	// The flow did not advance; a later Start succeeds without cleanup.
	step, err := env.controller.Step(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StepIdle, step)
}

func TestStartDoctorFetchFailureResetsToIdle(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctorsErr:    &appointment.GatewayError{StatusCode: 503, Message: "unavailable"},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	reply, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	assert.Equal(t, models.StepIdle, reply.Step)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, reply.Messages[0].Content, "couldn't fetch")

	// The intent message survives the failure.
	contents := env.repo.messageContents(id)
	assert.Contains(t, strings.Join(contents, "\n"), "book a doctor appointment")
}

func TestStartRejectedWhileFlowActive(t *testing.T) {
	gateway := &fakeGateway{authenticated: true, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	_, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	_, err = env.controller.Start(context.Background(), "u1", id, "")
	assert.ErrorIs(t, err, ErrBookingInProgress)

	assert.ErrorIs(t, env.controller.Guard(context.Background(), id), ErrBookingInProgress)
}

func TestFlowClaimIsExclusive(t *testing.T) {
	gateway := &fakeGateway{authenticated: true}
	env := newTestEnv(t, gateway)

	first := models.NewBookingFlowState()
	first.Step = models.StepSelectingDoctor
	claimed, err := env.flows.Claim(context.Background(), "c1", first)
	require.NoError(t, err)
	require.True(t, claimed)

	second := models.NewBookingFlowState()
	second.Step = models.StepSelectingSlot
	claimed, err = env.flows.Claim(context.Background(), "c1", second)
	require.NoError(t, err)
	assert.False(t, claimed)

	// The losing claim does not overwrite the winner's state.
	state, err := env.flows.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectingDoctor, state.Step)

	require.NoError(t, env.flows.Clear(context.Background(), "c1"))
	claimed, err = env.flows.Claim(context.Background(), "c1", second)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestStartWithoutTokenReleasesFlowClaim(t *testing.T) {
	gateway := &fakeGateway{authenticated: false, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	reply, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)
	require.True(t, reply.LoginRequired)

	// Signing in and starting again works without any manual cleanup.
	gateway.authenticated = true
	reply, err = env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectingDoctor, reply.Step)
}

func TestSelectDoctorMovesToSlotSelection(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctors:       twoDoctors(),
		slots: []models.Slot{
			{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"},
			{Date: "2026-09-01", StartTime: "11:00", EndTime: "13:00"},
		},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	_, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	reply, err := env.controller.SelectDoctor(context.Background(), "u1", id, "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	assert.Equal(t, models.StepSelectingSlot, reply.Step)
	require.Len(t, reply.Actions, 2)
	assert.Equal(t, "select_slot", reply.Actions[0].Type)
	require.NotNil(t, reply.Actions[0].Slot)
	assert.Equal(t, "09:00", reply.Actions[0].Slot.StartTime)

	consultation, err := env.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Adams", consultation.DoctorName)
}

func TestSelectDoctorAvailabilityFailureDegradesOneLevel(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctors:       twoDoctors(),
		slotsErr:      &appointment.GatewayError{StatusCode: 500},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	_, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	reply, err := env.controller.SelectDoctor(context.Background(), "u1", id, "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	// Slot failure drops back to doctor selection, not to idle.
	assert.Equal(t, models.StepSelectingDoctor, reply.Step)

	step, err := env.controller.Step(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectingDoctor, step)
}

func TestSelectDoctorUnknownIDKeepsStep(t *testing.T) {
	gateway := &fakeGateway{authenticated: true, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	_, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	reply, err := env.controller.SelectDoctor(context.Background(), "u1", id, "nope")
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectingDoctor, reply.Step)
	assert.Contains(t, reply.Messages[0].Content, "listed doctors")
}

func TestSelectSlotOutOfOrderIsRejected(t *testing.T) {
	gateway := &fakeGateway{authenticated: true}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")

	_, err := env.controller.SelectSlot(context.Background(), "u1", id, models.Slot{Date: "2026-09-01", StartTime: "09:00"})
	require.Error(t, err)
	assert.True(t, IsFlowStepError(err))
}

func TestSelectSlotSubmitsBooking(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctors:       twoDoctors(),
		slots:         []models.Slot{{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"}},
		confirmation:  &appointment.Confirmation{AppointmentID: "appt-1", Status: "pending"},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	_, err := env.controller.Start(ctx, "u1", id, "")
	require.NoError(t, err)
	_, err = env.controller.SelectDoctor(ctx, "u1", id, "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	reply, err := env.controller.SelectSlot(ctx, "u1", id, models.Slot{Date: "2026-09-01", StartTime: "09:00"})
	require.NoError(t, err)

	assert.Equal(t, models.StepIdle, reply.Step)
	require.Len(t, reply.Messages, 2)
	confirmed := reply.Messages[1]
	assert.Equal(t, "appt-1", confirmed.AppointmentID)
	assert.Contains(t, confirmed.Content, "You'll be notified once")
	assert.Contains(t, confirmed.Content, "Dr. Adams")

	appt, err := env.cache.Get(ctx, "u1", "appt-1")
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, models.AppointmentPending, appt.Status)
	assert.Equal(t, "I have chest pain", appt.Reason)

	// Flow state is destroyed; plain chat is allowed again.
	assert.NoError(t, env.controller.Guard(ctx, id))
}

func TestSelectSlotUnlistedSlotKeepsStep(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctors:       twoDoctors(),
		slots:         []models.Slot{{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"}},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	_, err := env.controller.Start(ctx, "u1", id, "")
	require.NoError(t, err)
	_, err = env.controller.SelectDoctor(ctx, "u1", id, "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	reply, err := env.controller.SelectSlot(ctx, "u1", id, models.Slot{Date: "2026-09-01", StartTime: "22:00"})
	require.NoError(t, err)
	assert.Equal(t, models.StepSelectingSlot, reply.Step)
	assert.Contains(t, reply.Messages[0].Content, "isn't available")
}

func TestSelectSlotSubmissionFailureAbortsToIdle(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		doctors:       twoDoctors(),
		slots:         []models.Slot{{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"}},
		requestErr:    &appointment.GatewayError{StatusCode: 500, Message: "boom"},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	_, err := env.controller.Start(ctx, "u1", id, "")
	require.NoError(t, err)
	_, err = env.controller.SelectDoctor(ctx, "u1", id, "507f1f77bcf86cd799439011")
	require.NoError(t, err)

	reply, err := env.controller.SelectSlot(ctx, "u1", id, models.Slot{Date: "2026-09-01", StartTime: "09:00"})
	require.NoError(t, err)

	assert.Equal(t, models.StepIdle, reply.Step)
	assert.Contains(t, reply.Messages[0].Content, "could not be submitted")

	// No appointment was cached and chat is open again.
	appts, err := env.cache.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.NoError(t, env.controller.Guard(ctx, id))
}

func TestCancelResetsFlowOnly(t *testing.T) {
	gateway := &fakeGateway{authenticated: true, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	_, err := env.controller.Start(ctx, "u1", id, "")
	require.NoError(t, err)

	reply, err := env.controller.Cancel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepIdle, reply.Step)
	assert.NoError(t, env.controller.Guard(ctx, id))

	// The transcript survives cancellation.
	contents := env.repo.messageContents(id)
	assert.NotEmpty(t, contents)
}

func TestAppendRetriesOnce(t *testing.T) {
	gateway := &fakeGateway{authenticated: true, doctors: twoDoctors()}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	env.repo.appendFails = 1

	_, err := env.controller.Start(context.Background(), "u1", id, "")
	require.NoError(t, err)

	contents := env.repo.messageContents(id)
	assert.Contains(t, strings.Join(contents, "\n"), "book a doctor appointment")
}

func TestResumeReArmsPollerForPendingAppointment(t *testing.T) {
	gateway := &fakeGateway{
		authenticated: true,
		statusQueue:   []models.AppointmentStatus{{Status: models.AppointmentApproved, DoctorName: "Adams"}},
	}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	pendingMsg := models.Message{
		ID:            "m-booked",
		Role:          models.RoleAssistant,
		Content:       "Your appointment request has been sent. You'll be notified once Dr. Adams confirms for 2026-09-01 at 09:00.",
		Timestamp:     time.Now(),
		AppointmentID: "appt-9",
	}
	require.NoError(t, env.repo.AppendMessage(ctx, id, pendingMsg))
	require.NoError(t, env.cache.Put(ctx, "u1", models.Appointment{AppointmentID: "appt-9", Status: models.AppointmentPending}))

	consultation, err := env.repo.GetByID(ctx, id)
	require.NoError(t, err)
	env.controller.Resume(ctx, "u1", consultation)

	require.Eventually(t, func() bool {
		return env.notifier.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestResumeSkipsAlreadyApprovedAppointments(t *testing.T) {
	gateway := &fakeGateway{authenticated: true}
	env := newTestEnv(t, gateway)
	id := seedConsultation(t, env, "u1")
	ctx := context.Background()

	require.NoError(t, env.repo.AppendMessage(ctx, id, models.Message{
		ID:            "m-booked",
		Role:          models.RoleAssistant,
		Content:       "Your appointment request has been sent. You'll be notified once Dr. Adams confirms for 2026-09-01 at 09:00.",
		Timestamp:     time.Now(),
		AppointmentID: "appt-9",
	}))
	require.NoError(t, env.repo.AppendMessage(ctx, id, models.Message{
		ID:                  "appt-approved-appt-9",
		Role:                models.RoleAssistant,
		Content:             "Dr. Adams has approved your appointment for 2026-09-01 at 09:00.",
		Timestamp:           time.Now(),
		AppointmentID:       "appt-9",
		IsAppointmentUpdate: true,
	}))

	consultation, err := env.repo.GetByID(ctx, id)
	require.NoError(t, err)
	env.controller.Resume(ctx, "u1", consultation)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, gateway.checks(), "approved appointments must not be polled again")
}
