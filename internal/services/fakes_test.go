package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CounselPracticeBack/internal/models"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
)

var (
	testAccountID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherAccountID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testUserID      = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testCounselorID = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func ownerScope() repository.Scope {
	return repository.Scope{AccountID: testAccountID, UserID: testUserID, Role: models.RoleOwner}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeAppointmentStore struct {
	rows       map[uuid.UUID]*models.Appointment
	clientName map[uuid.UUID]string
	overlaps   []uuid.UUID
	createErr  error
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{
		rows:       make(map[uuid.UUID]*models.Appointment),
		clientName: make(map[uuid.UUID]string),
	}
}

func (f *fakeAppointmentStore) put(a models.Appointment) *models.Appointment {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	copied := a
	f.rows[a.ID] = &copied
	return &copied
}

func (f *fakeAppointmentStore) find(scope repository.Scope, id uuid.UUID, trashed bool) (*models.Appointment, error) {
	row, ok := f.rows[id]
	if !ok || row.AccountID != scope.AccountID || row.IsTrashed() != trashed {
		return nil, pgx.ErrNoRows
	}
	return row, nil
}

func (f *fakeAppointmentStore) Create(_ context.Context, scope repository.Scope, input repository.CreateAppointmentInput) (*models.Appointment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	row := f.put(models.Appointment{
		AccountID:       scope.AccountID,
		ClientID:        input.ClientID,
		CounselorID:     input.CounselorID,
		Title:           input.Title,
		StartTime:       input.StartTime,
		DurationMinutes: input.DurationMinutes,
		Status:          input.Status,
		Location:        input.Location,
		MeetingLink:     input.MeetingLink,
		Notes:           input.Notes,
	})
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) GetByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error) {
	row, err := f.find(scope, id, false)
	if err != nil {
		return nil, err
	}
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) GetTrashedByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error) {
	row, err := f.find(scope, id, true)
	if err != nil {
		return nil, err
	}
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) ListRange(_ context.Context, scope repository.Scope, filter repository.AppointmentRangeFilter) ([]models.AppointmentDetail, error) {
	details := make([]models.AppointmentDetail, 0)
	for _, row := range f.rows {
		if row.AccountID != scope.AccountID || row.IsTrashed() {
			continue
		}
		if row.StartTime.Before(filter.From) || !row.StartTime.Before(filter.To) {
			continue
		}
		details = append(details, models.AppointmentDetail{Appointment: *row, ClientName: f.clientName[row.ClientID]})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].StartTime.Before(details[j].StartTime) })
	return details, nil
}

func (f *fakeAppointmentStore) ListOverlapping(_ context.Context, _ repository.Scope, _ *uuid.UUID, _ time.Time, _ int, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.overlaps, nil
}

func (f *fakeAppointmentStore) UpdateStatusIfCurrent(_ context.Context, scope repository.Scope, id uuid.UUID, current, next models.AppointmentStatus) (*models.Appointment, error) {
	row, err := f.find(scope, id, false)
	if err != nil || row.Status != current {
		return nil, pgx.ErrNoRows
	}
	row.Status = next
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) Reschedule(_ context.Context, scope repository.Scope, id uuid.UUID, start time.Time, durationMinutes int, status models.AppointmentStatus) (*models.Appointment, error) {
	row, err := f.find(scope, id, false)
	if err != nil {
		return nil, err
	}
	row.StartTime = start
	row.DurationMinutes = durationMinutes
	row.Status = status
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) SoftDelete(_ context.Context, scope repository.Scope, id uuid.UUID, deletedAt time.Time) (*models.Appointment, error) {
	row, err := f.find(scope, id, false)
	if err != nil {
		return nil, err
	}
	row.DeletedAt = &deletedAt
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) Restore(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Appointment, error) {
	row, err := f.find(scope, id, true)
	if err != nil {
		return nil, err
	}
	row.DeletedAt = nil
	copied := *row
	return &copied, nil
}

func (f *fakeAppointmentStore) ListTrashed(_ context.Context, scope repository.Scope) ([]models.Appointment, error) {
	trashed := make([]models.Appointment, 0)
	for _, row := range f.rows {
		if row.AccountID == scope.AccountID && row.IsTrashed() {
			trashed = append(trashed, *row)
		}
	}
	return trashed, nil
}

func (f *fakeAppointmentStore) PermanentDelete(_ context.Context, scope repository.Scope, id uuid.UUID) error {
	if _, err := f.find(scope, id, true); err != nil {
		return err
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeAppointmentStore) NextForClient(_ context.Context, scope repository.Scope, clientID uuid.UUID, from time.Time) (*models.Appointment, error) {
	var next *models.Appointment
	for _, row := range f.rows {
		if row.AccountID != scope.AccountID || row.ClientID != clientID || row.IsTrashed() || row.StartTime.Before(from) {
			continue
		}
		if next == nil || row.StartTime.Before(next.StartTime) {
			next = row
		}
	}
	if next == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *next
	return &copied, nil
}

type fakeClientStore struct {
	rows map[uuid.UUID]*models.Client
}

func newFakeClientStore(clients ...models.Client) *fakeClientStore {
	store := &fakeClientStore{rows: make(map[uuid.UUID]*models.Client)}
	for i := range clients {
		client := clients[i]
		store.rows[client.ID] = &client
	}
	return store
}

func (f *fakeClientStore) Create(_ context.Context, scope repository.Scope, input repository.CreateClientInput) (*models.Client, error) {
	client := &models.Client{
		ID:        uuid.New(),
		AccountID: scope.AccountID,
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Notes:     input.Notes,
	}
	f.rows[client.ID] = client
	copied := *client
	return &copied, nil
}

func (f *fakeClientStore) GetByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Client, error) {
	client, ok := f.rows[id]
	if !ok || client.AccountID != scope.AccountID {
		return nil, pgx.ErrNoRows
	}
	copied := *client
	return &copied, nil
}

func (f *fakeClientStore) List(_ context.Context, scope repository.Scope, filter repository.ClientListFilter) ([]models.Client, int, error) {
	matched := make([]models.Client, 0)
	search := strings.ToLower(filter.Search)
	for _, client := range f.rows {
		if client.AccountID != scope.AccountID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(client.FullName), search) {
			continue
		}
		matched = append(matched, *client)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].FullName < matched[j].FullName })
	return matched, len(matched), nil
}

func (f *fakeClientStore) Update(_ context.Context, scope repository.Scope, id uuid.UUID, input repository.UpdateClientInput) (*models.Client, error) {
	client, ok := f.rows[id]
	if !ok || client.AccountID != scope.AccountID {
		return nil, pgx.ErrNoRows
	}
	if input.FullName != nil {
		client.FullName = *input.FullName
	}
	if input.Email != nil {
		client.Email = input.Email
	}
	copied := *client
	return &copied, nil
}

type fakeUserStore struct {
	rows map[uuid.UUID]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	store := &fakeUserStore{rows: make(map[uuid.UUID]models.User)}
	for _, user := range users {
		store.rows[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) GetMember(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.User, error) {
	user, ok := f.rows[id]
	if !ok || user.AccountID != scope.AccountID {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

type fakeNotificationStore struct {
	rows       []models.Notification
	batchCalls int
}

func (f *fakeNotificationStore) CreateBatch(_ context.Context, scope repository.Scope, inputs []repository.CreateNotificationInput) ([]models.Notification, error) {
	f.batchCalls++
	created := make([]models.Notification, 0, len(inputs))
	for _, input := range inputs {
		n := models.Notification{
			ID:            uuid.New(),
			AccountID:     scope.AccountID,
			UserID:        input.UserID,
			Type:          input.Type,
			Title:         input.Title,
			Message:       input.Message,
			AppointmentID: input.AppointmentID,
			ScheduledFor:  input.ScheduledFor,
		}
		f.rows = append(f.rows, n)
		created = append(created, n)
	}
	return created, nil
}

func (f *fakeNotificationStore) DeletePendingForAppointment(_ context.Context, scope repository.Scope, appointmentID uuid.UUID) (int64, error) {
	kept := f.rows[:0]
	var deleted int64
	for _, n := range f.rows {
		if n.AccountID == scope.AccountID && n.AppointmentID != nil && *n.AppointmentID == appointmentID && n.SentAt == nil {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	f.rows = kept
	return deleted, nil
}

func (f *fakeNotificationStore) ListForUser(_ context.Context, scope repository.Scope, filter repository.NotificationListFilter) ([]models.Notification, error) {
	listed := make([]models.Notification, 0)
	for _, n := range f.rows {
		if n.UserID == scope.UserID && n.SentAt != nil && (!filter.UnreadOnly || !n.IsRead) {
			listed = append(listed, n)
		}
	}
	if len(listed) > filter.Limit {
		listed = listed[:filter.Limit]
	}
	return listed, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Notification, error) {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserID == scope.UserID {
			f.rows[i].IsRead = true
			copied := f.rows[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context, scope repository.Scope) (int64, error) {
	var updated int64
	for i := range f.rows {
		if f.rows[i].UserID == scope.UserID && f.rows[i].SentAt != nil && !f.rows[i].IsRead {
			f.rows[i].IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context, scope repository.Scope) (int, error) {
	count := 0
	for _, n := range f.rows {
		if n.UserID == scope.UserID && n.SentAt != nil && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) forAppointment(appointmentID uuid.UUID) []models.Notification {
	matched := make([]models.Notification, 0)
	for _, n := range f.rows {
		if n.AppointmentID != nil && *n.AppointmentID == appointmentID {
			matched = append(matched, n)
		}
	}
	return matched
}

type fakeSettingsStore struct {
	settings map[uuid.UUID]models.NotificationSettings
	err      error
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{settings: make(map[uuid.UUID]models.NotificationSettings)}
}

func (f *fakeSettingsStore) GetOrCreate(_ context.Context, userID uuid.UUID) (*models.NotificationSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	settings, ok := f.settings[userID]
	if !ok {
		settings = models.DefaultNotificationSettings(userID)
		f.settings[userID] = settings
	}
	return &settings, nil
}

func (f *fakeSettingsStore) Update(ctx context.Context, userID uuid.UUID, input repository.UpdateNotificationSettingsInput) (*models.NotificationSettings, error) {
	current, err := f.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Reminder1Hour != nil {
		current.Reminder1Hour = *input.Reminder1Hour
	}
	if input.Reminder30Mins != nil {
		current.Reminder30Mins = *input.Reminder30Mins
	}
	if input.BrowserEnabled != nil {
		current.BrowserEnabled = *input.BrowserEnabled
	}
	if input.SMSEnabled != nil {
		current.SMSEnabled = *input.SMSEnabled
	}
	f.settings[userID] = *current
	return current, nil
}

type fakeTransactionStore struct {
	rows []models.Transaction
}

func (f *fakeTransactionStore) Create(_ context.Context, scope repository.Scope, input repository.CreateTransactionInput) (*models.Transaction, error) {
	txn := models.Transaction{
		ID:            uuid.New(),
		AccountID:     scope.AccountID,
		ClientID:      input.ClientID,
		AppointmentID: input.AppointmentID,
		Amount:        input.Amount,
		Type:          input.Type,
		Method:        input.Method,
		Date:          input.Date,
		Status:        input.Status,
	}
	f.rows = append(f.rows, txn)
	return &txn, nil
}

func (f *fakeTransactionStore) GetByID(_ context.Context, scope repository.Scope, id uuid.UUID) (*models.Transaction, error) {
	for _, txn := range f.rows {
		if txn.ID == id && txn.AccountID == scope.AccountID {
			copied := txn
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTransactionStore) ListForClient(_ context.Context, scope repository.Scope, clientID uuid.UUID) ([]models.Transaction, error) {
	listed := make([]models.Transaction, 0)
	for _, txn := range f.rows {
		if txn.AccountID == scope.AccountID && txn.ClientID == clientID {
			listed = append(listed, txn)
		}
	}
	return listed, nil
}

func (f *fakeTransactionStore) Delete(_ context.Context, scope repository.Scope, id uuid.UUID) error {
	for i, txn := range f.rows {
		if txn.ID == id && txn.AccountID == scope.AccountID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTransactionStore) TotalsForClient(_ context.Context, scope repository.Scope, clientID uuid.UUID) (models.LedgerTotals, error) {
	var totals models.LedgerTotals
	for _, txn := range f.rows {
		if txn.AccountID == scope.AccountID && txn.ClientID == clientID {
			totals.Add(txn.Type, txn.Amount)
		}
	}
	return totals, nil
}

// directTx runs fn against the same stores without isolation.
type directTx struct {
	stores Stores
	calls  int
}

func (d *directTx) InTx(_ context.Context, fn func(stores Stores) error) error {
	d.calls++
	return fn(d.stores)
}

type fixture struct {
	appointments  *fakeAppointmentStore
	clients       *fakeClientStore
	notifications *fakeNotificationStore
	settings      *fakeSettingsStore
	transactions  *fakeTransactionStore
	users         *fakeUserStore
	stores        Stores
	tx            *directTx
}

func accountMembers() []models.User {
	return []models.User{
		{ID: testUserID, AccountID: testAccountID, Role: models.RoleOwner},
		{ID: testCounselorID, AccountID: testAccountID, Role: models.RoleCounselor},
	}
}

func newFixture(clients ...models.Client) *fixture {
	f := &fixture{
		appointments:  newFakeAppointmentStore(),
		clients:       newFakeClientStore(clients...),
		notifications: &fakeNotificationStore{},
		settings:      newFakeSettingsStore(),
		transactions:  &fakeTransactionStore{},
		users:         newFakeUserStore(accountMembers()...),
	}
	f.stores = Stores{
		Appointments:  f.appointments,
		Clients:       f.clients,
		Notifications: f.notifications,
		Settings:      f.settings,
		Transactions:  f.transactions,
		Users:         f.users,
	}
	f.tx = &directTx{stores: f.stores}
	return f
}
