package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuentas-claras/panel/internal/api"
	"github.com/cuentas-claras/panel/internal/application"
	"github.com/cuentas-claras/panel/internal/config"
	httptransport "github.com/cuentas-claras/panel/internal/http"
	"github.com/cuentas-claras/panel/internal/logging"
	"github.com/cuentas-claras/panel/internal/obs"
	"github.com/cuentas-claras/panel/internal/persistence"
	"github.com/cuentas-claras/panel/internal/persistence/sqlite"
	"github.com/cuentas-claras/panel/internal/seal"
)

func main() {
	logger := logging.New(os.Stdout, os.Getenv("PANEL_LOG_LEVEL"))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	sealer, err := seal.New(cfg.VaultSecret)
	if err != nil {
		logger.Error("failed to initialize the credential sealer", "error", err)
		os.Exit(1)
	}

	obs.Init()

	backendHTTPClient := &http.Client{Timeout: cfg.BackendTimeout}

	// The client reads the bearer token from the session store, which in
	// turn talks to the backend through the same client. The closure breaks
	// the cycle; sessions is assigned before any request can run.
	var sessions *application.SessionStore
	client := api.New(cfg.APIBaseURL,
		api.WithHTTPClient(backendHTTPClient),
		api.WithTokenSource(func() string {
			token, _ := sessions.Token(context.Background())
			return token
		}),
		api.WithObserver(observeBackend),
		api.WithLogger(logger),
	)

	// FetchProfile runs before the session store holds the new token, so
	// profile fetches go through a short-lived client pinned to that token.
	pinnedClient := func(token string) *api.Client {
		return api.New(cfg.APIBaseURL,
			api.WithHTTPClient(backendHTTPClient),
			api.WithTokenSource(func() string { return token }),
			api.WithObserver(observeBackend),
			api.WithLogger(logger),
		)
	}

	vault := newVaultAdapter(storage.CredentialStore(), sealer)
	sessions = application.NewSessionStoreWithLogger(vault, newAuthGatewayAdapter(client, pinnedClient), time.Now, logger)

	center := application.NewNotificationCenterWithLogger(
		newNotificationGatewayAdapter(client),
		newNotificationCacheAdapter(storage.NotificationCache()),
		sessions,
		cfg.PollInterval,
		time.Now,
		logger,
	)

	expenseGateway := newExpenseGatewayAdapter(client)
	fineGateway := newFineGatewayAdapter(client)

	expenseService := application.NewExpenseService(expenseGateway)
	fineService := application.NewFineService(fineGateway)
	userService := application.NewUserService(newUserGatewayAdapter(client, sessions), sessions)
	dashboardService := application.NewDashboardServiceWithLogger(expenseGateway, fineGateway, center, time.Now, logger)

	if err := center.Restore(ctx); err != nil {
		logger.Warn("failed to restore the notification cache", "error", err)
	}
	go func() {
		if err := sessions.Initialize(ctx); err != nil {
			logger.Error("session restore failed", "error", err)
		}
	}()
	go func() {
		if err := center.Run(ctx); err != nil {
			logger.Error("notification polling failed", "error", err)
		}
	}()

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(sessions, logger),
		Users:         httptransport.NewUserHandler(userService, logger),
		Expenses:      httptransport.NewExpenseHandler(expenseService, dashboardService.InvalidateStats, logger),
		Fines:         httptransport.NewFineHandler(fineService, dashboardService.InvalidateStats, logger),
		Notifications: httptransport.NewNotificationHandler(center, logger),
		Dashboard:     httptransport.NewDashboardHandler(dashboardService, logger),
		Sessions:      sessions,
		Metrics:       obs.Handler(),
		Logger:        logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			obs.Instrument,
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("panel listening", "addr", server.Addr, "backend", cfg.APIBaseURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// observeBackend feeds client round trips into the metrics. Status 0 means
// no response arrived at all.
func observeBackend(method, path string, status int, elapsed time.Duration) {
	outcome := "ok"
	switch {
	case status == 0:
		outcome = "unreachable"
	case status >= 500:
		outcome = "server_error"
	case status >= 400:
		outcome = "rejected"
	}
	obs.ObserveBackendRequest(method, path, outcome, elapsed)
}

// toApplicationError translates the client error taxonomy into the
// application sentinels, keeping the server supplied detail text.
func toApplicationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var vErr *api.ValidationError
	if errors.As(err, &vErr) {
		return &application.ValidationError{FieldErrors: vErr.Fields}
	}

	detail := api.Detail(err)
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return &application.RemoteError{Kind: application.ErrUnauthorized, Detail: detail}
	case errors.Is(err, api.ErrForbidden):
		return &application.RemoteError{Kind: application.ErrForbidden, Detail: detail}
	case errors.Is(err, api.ErrNotFound):
		return &application.RemoteError{Kind: application.ErrNotFound, Detail: detail}
	case errors.Is(err, api.ErrServer):
		return &application.RemoteError{Kind: application.ErrServerFault, Detail: detail}
	case errors.Is(err, api.ErrUnreachable):
		return &application.RemoteError{Kind: application.ErrBackendUnavailable, Detail: detail}
	}
	return err
}

// ----------------------------- vault adapter ------------------------------

type vaultAdapter struct {
	store  persistence.CredentialStore
	sealer *seal.Sealer
}

func newVaultAdapter(store persistence.CredentialStore, sealer *seal.Sealer) *vaultAdapter {
	return &vaultAdapter{store: store, sealer: sealer}
}

type storedTokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (a *vaultAdapter) SaveTokens(ctx context.Context, pair application.TokenPair) error {
	encoded, err := json.Marshal(storedTokens{Access: pair.Access, Refresh: pair.Refresh})
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	sealed, err := a.sealer.Seal(encoded)
	if err != nil {
		return err
	}
	return a.store.SaveSealedCredentials(ctx, persistence.SealedCredentials{Sealed: sealed, UpdatedAt: time.Now().UTC()})
}

func (a *vaultAdapter) LoadTokens(ctx context.Context) (application.TokenPair, error) {
	creds, err := a.store.LoadSealedCredentials(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return application.TokenPair{}, application.ErrNotFound
		}
		return application.TokenPair{}, err
	}

	plain, err := a.sealer.Open(creds.Sealed)
	if err != nil {
		// A blob sealed under a different secret is unrecoverable. Treat
		// it as absent so the operator just logs in again.
		if errors.Is(err, seal.ErrSealedDataInvalid) {
			_ = a.store.ClearSealedCredentials(ctx)
			return application.TokenPair{}, application.ErrNotFound
		}
		return application.TokenPair{}, err
	}

	var tokens storedTokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return application.TokenPair{}, fmt.Errorf("decode tokens: %w", err)
	}
	return application.TokenPair{Access: tokens.Access, Refresh: tokens.Refresh}, nil
}

func (a *vaultAdapter) ClearTokens(ctx context.Context) error {
	return a.store.ClearSealedCredentials(ctx)
}

// ------------------------------ auth gateway ------------------------------

type authGatewayAdapter struct {
	client *api.Client
	pinned func(token string) *api.Client
}

func newAuthGatewayAdapter(client *api.Client, pinned func(token string) *api.Client) *authGatewayAdapter {
	return &authGatewayAdapter{client: client, pinned: pinned}
}

func (a *authGatewayAdapter) ObtainTokens(ctx context.Context, username, password string) (application.TokenPair, error) {
	pair, err := a.client.ObtainToken(ctx, username, password)
	if err != nil {
		return application.TokenPair{}, toApplicationError(err)
	}
	return application.TokenPair{Access: pair.Access, Refresh: pair.Refresh}, nil
}

func (a *authGatewayAdapter) RefreshAccessToken(ctx context.Context, refresh string) (string, error) {
	access, err := a.client.RefreshToken(ctx, refresh)
	if err != nil {
		return "", toApplicationError(err)
	}
	return access, nil
}

func (a *authGatewayAdapter) FetchProfile(ctx context.Context, access string) (application.UserProfile, error) {
	user, err := a.pinned(access).Profile(ctx)
	if err != nil {
		return application.UserProfile{}, toApplicationError(err)
	}
	return toUserProfile(user), nil
}

// -------------------------- notification gateway --------------------------

type notificationGatewayAdapter struct {
	client *api.Client
}

func newNotificationGatewayAdapter(client *api.Client) *notificationGatewayAdapter {
	return &notificationGatewayAdapter{client: client}
}

func (a *notificationGatewayAdapter) FetchNotifications(ctx context.Context) ([]application.Notification, error) {
	items, err := a.client.ListNotifications(ctx)
	if err != nil {
		return nil, toApplicationError(err)
	}
	out := make([]application.Notification, 0, len(items))
	for _, item := range items {
		out = append(out, toNotification(item))
	}
	return out, nil
}

func (a *notificationGatewayAdapter) FetchUnreadCount(ctx context.Context) (int, error) {
	unread, err := a.client.UnreadCount(ctx)
	if err != nil {
		obs.ObserveNotificationPoll("error", 0)
		return 0, toApplicationError(err)
	}
	obs.ObserveNotificationPoll("ok", unread)
	return unread, nil
}

func (a *notificationGatewayAdapter) MarkRead(ctx context.Context, id int) error {
	return toApplicationError(a.client.MarkNotificationRead(ctx, id))
}

func (a *notificationGatewayAdapter) MarkAllRead(ctx context.Context) error {
	return toApplicationError(a.client.MarkAllNotificationsRead(ctx))
}

func (a *notificationGatewayAdapter) Delete(ctx context.Context, id int) error {
	return toApplicationError(a.client.DeleteNotification(ctx, id))
}

// --------------------------- notification cache ---------------------------

type notificationCacheAdapter struct {
	cache persistence.NotificationCache
}

func newNotificationCacheAdapter(cache persistence.NotificationCache) *notificationCacheAdapter {
	return &notificationCacheAdapter{cache: cache}
}

func (a *notificationCacheAdapter) ReplaceNotifications(ctx context.Context, items []application.Notification) error {
	rows := make([]persistence.CachedNotification, 0, len(items))
	for _, item := range items {
		rows = append(rows, persistence.CachedNotification{
			ID:          item.ID,
			Kind:        item.Kind,
			Title:       item.Title,
			Message:     item.Message,
			Target:      string(item.Target),
			IsRead:      item.IsRead,
			CreatedAt:   item.CreatedAt,
			RelativeAge: item.RelativeAge,
		})
	}
	return a.cache.ReplaceNotifications(ctx, rows)
}

func (a *notificationCacheAdapter) CachedNotifications(ctx context.Context) ([]application.Notification, error) {
	rows, err := a.cache.ListNotifications(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}
	items := make([]application.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, application.Notification{
			ID:          row.ID,
			Kind:        row.Kind,
			Title:       row.Title,
			Message:     row.Message,
			Target:      application.ParseTargetKind(row.Target),
			IsRead:      row.IsRead,
			CreatedAt:   row.CreatedAt,
			RelativeAge: row.RelativeAge,
		})
	}
	return items, nil
}

// ----------------------------- expense gateway ----------------------------

type expenseGatewayAdapter struct {
	client *api.Client
}

func newExpenseGatewayAdapter(client *api.Client) *expenseGatewayAdapter {
	return &expenseGatewayAdapter{client: client}
}

func (a *expenseGatewayAdapter) ListExpenses(ctx context.Context, filter application.ExpenseFilter) ([]application.CommonExpense, error) {
	var (
		rows []api.GastoComun
		err  error
	)
	switch filter {
	case application.ExpenseFilterPending:
		rows, err = a.client.PendingExpenses(ctx)
	case application.ExpenseFilterPaid:
		rows, err = a.client.PaidExpenses(ctx)
	default:
		rows, err = a.client.ListExpenses(ctx)
	}
	if err != nil {
		return nil, toApplicationError(err)
	}

	out := make([]application.CommonExpense, 0, len(rows))
	for _, row := range rows {
		out = append(out, toExpense(row))
	}
	return out, nil
}

func (a *expenseGatewayAdapter) GetExpense(ctx context.Context, id int) (application.CommonExpense, error) {
	row, err := a.client.GetExpense(ctx, id)
	if err != nil {
		return application.CommonExpense{}, toApplicationError(err)
	}
	return toExpense(row), nil
}

func (a *expenseGatewayAdapter) CreateExpense(ctx context.Context, input application.ExpenseInput) (application.CommonExpense, error) {
	row, err := a.client.CreateExpense(ctx, toExpensePayload(input))
	if err != nil {
		return application.CommonExpense{}, toApplicationError(err)
	}
	return toExpense(row), nil
}

func (a *expenseGatewayAdapter) UpdateExpense(ctx context.Context, id int, input application.ExpenseInput) (application.CommonExpense, error) {
	row, err := a.client.UpdateExpense(ctx, id, toExpensePayload(input))
	if err != nil {
		return application.CommonExpense{}, toApplicationError(err)
	}
	return toExpense(row), nil
}

func (a *expenseGatewayAdapter) DeleteExpense(ctx context.Context, id int) error {
	return toApplicationError(a.client.DeleteExpense(ctx, id))
}

func (a *expenseGatewayAdapter) PayExpense(ctx context.Context, id int) (application.CommonExpense, error) {
	row, err := a.client.PayExpense(ctx, id)
	if err != nil {
		return application.CommonExpense{}, toApplicationError(err)
	}
	return toExpense(row), nil
}

func (a *expenseGatewayAdapter) ExpenseStats(ctx context.Context) (application.ExpenseStats, error) {
	stats, err := a.client.ExpenseStats(ctx)
	if err != nil {
		return application.ExpenseStats{}, toApplicationError(err)
	}
	return application.ExpenseStats{
		Total:         stats.TotalGastos,
		Pending:       stats.TotalPendientes,
		Paid:          stats.TotalPagados,
		PendingAmount: stats.MontoPendiente,
		PaidAmount:    stats.MontoPagado,
	}, nil
}

// ------------------------------ fine gateway ------------------------------

type fineGatewayAdapter struct {
	client *api.Client
}

func newFineGatewayAdapter(client *api.Client) *fineGatewayAdapter {
	return &fineGatewayAdapter{client: client}
}

func (a *fineGatewayAdapter) ListFines(ctx context.Context) ([]application.Fine, error) {
	rows, err := a.client.ListFines(ctx)
	if err != nil {
		return nil, toApplicationError(err)
	}
	out := make([]application.Fine, 0, len(rows))
	for _, row := range rows {
		out = append(out, toFine(row))
	}
	return out, nil
}

func (a *fineGatewayAdapter) GetFine(ctx context.Context, id int) (application.Fine, error) {
	row, err := a.client.GetFine(ctx, id)
	if err != nil {
		return application.Fine{}, toApplicationError(err)
	}
	return toFine(row), nil
}

func (a *fineGatewayAdapter) CreateFine(ctx context.Context, input application.FineInput) (application.Fine, error) {
	row, err := a.client.CreateFine(ctx, toFinePayload(input))
	if err != nil {
		return application.Fine{}, toApplicationError(err)
	}
	return toFine(row), nil
}

func (a *fineGatewayAdapter) UpdateFine(ctx context.Context, id int, input application.FineInput) (application.Fine, error) {
	row, err := a.client.UpdateFine(ctx, id, toFinePayload(input))
	if err != nil {
		return application.Fine{}, toApplicationError(err)
	}
	return toFine(row), nil
}

func (a *fineGatewayAdapter) DeleteFine(ctx context.Context, id int) error {
	return toApplicationError(a.client.DeleteFine(ctx, id))
}

func (a *fineGatewayAdapter) PayFine(ctx context.Context, id int) (application.Fine, error) {
	row, err := a.client.PayFine(ctx, id)
	if err != nil {
		return application.Fine{}, toApplicationError(err)
	}
	return toFine(row), nil
}

func (a *fineGatewayAdapter) VoidFine(ctx context.Context, id int) (application.Fine, error) {
	row, err := a.client.VoidFine(ctx, id)
	if err != nil {
		return application.Fine{}, toApplicationError(err)
	}
	return toFine(row), nil
}

func (a *fineGatewayAdapter) FineStats(ctx context.Context) (application.FineStats, error) {
	stats, err := a.client.FineStats(ctx)
	if err != nil {
		return application.FineStats{}, toApplicationError(err)
	}
	return application.FineStats{
		Total:         stats.TotalMultas,
		Pending:       stats.TotalPendientes,
		Paid:          stats.TotalPagadas,
		Voided:        stats.TotalAnuladas,
		PendingAmount: stats.MontoPendiente,
		PaidAmount:    stats.MontoPagado,
	}, nil
}

// ------------------------------ user gateway ------------------------------

type userGatewayAdapter struct {
	client   *api.Client
	sessions *application.SessionStore
}

func newUserGatewayAdapter(client *api.Client, sessions *application.SessionStore) *userGatewayAdapter {
	return &userGatewayAdapter{client: client, sessions: sessions}
}

func (a *userGatewayAdapter) RegisterUser(ctx context.Context, input application.UserInput) (application.UserProfile, error) {
	user, err := a.client.RegisterUser(ctx, api.RegistroUsuario{
		Username:         input.Username,
		Password:         input.Password,
		Password2:        input.PasswordConfirm,
		Email:            input.Email,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Rol:              string(input.Role),
		Telefono:         input.Phone,
		NumeroResidencia: input.ResidenceNumber,
	})
	if err != nil {
		return application.UserProfile{}, toApplicationError(err)
	}
	return toUserProfile(user), nil
}

func (a *userGatewayAdapter) ListUsers(ctx context.Context) ([]application.UserProfile, error) {
	rows, err := a.client.ListUsers(ctx)
	if err != nil {
		return nil, toApplicationError(err)
	}
	out := make([]application.UserProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, toUserProfile(row))
	}
	return out, nil
}

func (a *userGatewayAdapter) GetUser(ctx context.Context, id int) (application.UserProfile, error) {
	user, err := a.client.GetUser(ctx, id)
	if err != nil {
		return application.UserProfile{}, toApplicationError(err)
	}
	return toUserProfile(user), nil
}

func (a *userGatewayAdapter) UpdateUser(ctx context.Context, id int, update application.ProfileUpdate) (application.UserProfile, error) {
	current, err := a.client.GetUser(ctx, id)
	if err != nil {
		return application.UserProfile{}, toApplicationError(err)
	}

	user, err := a.client.UpdateUser(ctx, id, mergeUserUpdate(current, update))
	if err != nil {
		return application.UserProfile{}, toApplicationError(err)
	}
	return toUserProfile(user), nil
}

func (a *userGatewayAdapter) DeleteUser(ctx context.Context, id int) error {
	return toApplicationError(a.client.DeleteUser(ctx, id))
}

func (a *userGatewayAdapter) UpdateOwnProfile(ctx context.Context, update application.ProfileUpdate) (application.UserProfile, error) {
	principal, err := a.sessions.Principal()
	if err != nil {
		return application.UserProfile{}, err
	}
	return a.UpdateUser(ctx, principal.UserID, update)
}

// mergeUserUpdate fills untouched fields from the current record, because
// the backend update endpoint replaces the whole editable set.
func mergeUserUpdate(current api.Usuario, update application.ProfileUpdate) api.ActualizacionUsuario {
	payload := api.ActualizacionUsuario{
		FirstName:        current.FirstName,
		LastName:         current.LastName,
		Email:            current.Email,
		Telefono:         current.Telefono,
		NumeroResidencia: current.NumeroResidencia,
	}
	if update.FirstName != nil {
		payload.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		payload.LastName = *update.LastName
	}
	if update.Email != nil {
		payload.Email = *update.Email
	}
	if update.Phone != nil {
		payload.Telefono = *update.Phone
	}
	if update.ResidenceNumber != nil {
		payload.NumeroResidencia = *update.ResidenceNumber
	}
	return payload
}

// ------------------------------ conversions -------------------------------

func toUserProfile(user api.Usuario) application.UserProfile {
	return application.UserProfile{
		ID:              user.ID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Email:           user.Email,
		Role:            application.Role(user.Rol),
		Phone:           user.Telefono,
		ResidenceNumber: user.NumeroResidencia,
		JoinedAt:        user.DateJoined,
	}
}

func toNotification(item api.Notificacion) application.Notification {
	return application.Notification{
		ID:          item.ID,
		Kind:        item.Tipo,
		Title:       item.Titulo,
		Message:     item.Mensaje,
		Target:      application.ParseTargetKind(item.ObjetoTipo),
		IsRead:      item.Leida,
		CreatedAt:   item.FechaCreacion,
		RelativeAge: item.TiempoRelativo,
	}
}

func toExpense(row api.GastoComun) application.CommonExpense {
	return application.CommonExpense{
		ID:          row.ID,
		ResidentID:  row.Residente,
		Concept:     row.Concepto,
		Description: row.Descripcion,
		Amount:      row.Monto,
		Status:      application.ExpenseStatus(row.Estado),
		IssuedOn:    row.FechaEmision,
		DueOn:       row.FechaVencimiento,
		PaidAt:      row.FechaPago,
	}
}

func toExpensePayload(input application.ExpenseInput) api.NuevoGastoComun {
	return api.NuevoGastoComun{
		Residente:        input.ResidentID,
		Concepto:         input.Concept,
		Descripcion:      input.Description,
		Monto:            input.Amount,
		FechaVencimiento: input.DueOn,
	}
}

func toFine(row api.Multa) application.Fine {
	return application.Fine{
		ID:          row.ID,
		ResidentID:  row.Residente,
		Reason:      row.Motivo,
		Description: row.Descripcion,
		Amount:      row.Precio,
		Status:      application.FineStatus(row.Estado),
		CreatedAt:   row.FechaCreacion,
		PaidAt:      row.FechaPago,
	}
}

func toFinePayload(input application.FineInput) api.NuevaMulta {
	return api.NuevaMulta{
		Residente:   input.ResidentID,
		Motivo:      input.Reason,
		Descripcion: input.Description,
		Precio:      input.Amount,
	}
}
