package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/domain"
	"github.com/aussiebroadwan/tenantgate/internal/access/store"
	"github.com/aussiebroadwan/tenantgate/internal/access/store/drivers/sqlite"
	"github.com/aussiebroadwan/tenantgate/pkg/cryptox"
	"github.com/aussiebroadwan/tenantgate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

// fakeClock is a settable clock shared by every service of a harness.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingNotifier keeps every notice and can be told to fail.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []domain.AdminNotice
	err     error
}

func (n *recordingNotifier) NotifyAdmins(_ context.Context, notice domain.AdminNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type recordingPublisher struct {
	mu      sync.Mutex
	signals []domain.TerminationSignal
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, sig domain.TerminationSignal) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.signals = append(p.signals, sig)
	return nil
}

type harness struct {
	store    store.Store
	clock    *fakeClock
	notifier *recordingNotifier
	pub      *recordingPublisher

	lockout     *LockoutService
	identity    *IdentityService
	twoFactor   *TwoFactorService
	credentials *CredentialService
	licenses    *LicenseService
	users       *UserService
	terminator  *TerminationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clock := &fakeClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	h := &harness{
		store:    st,
		clock:    clock,
		notifier: &recordingNotifier{},
		pub:      &recordingPublisher{},
	}

	h.lockout, err = NewLockoutService(st, h.notifier, domain.DefaultLockoutPolicy)
	require.NoError(t, err)
	h.lockout.Now = clock.Now

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifierEdDSA(keys, "tenantgate-test")
	verifier.Now = clock.Now

	h.identity = &IdentityService{
		Store:    st,
		Signer:   signer,
		Verifier: verifier,
		Issuer:   "tenantgate-test",
		TokenTTL: time.Hour,
		Now:      clock.Now,
	}
	h.twoFactor = &TwoFactorService{
		Store:           st,
		Lockout:         h.lockout,
		Issuer:          "TenantGate",
		VerificationTTL: 8 * time.Hour,
		Now:             clock.Now,
	}
	h.credentials = &CredentialService{
		Store:     st,
		Lockout:   h.lockout,
		Identity:  h.identity,
		TwoFactor: h.twoFactor,
	}
	h.licenses = &LicenseService{Store: st, Now: clock.Now}
	h.users = &UserService{Store: st, Licenses: h.licenses, Now: clock.Now}
	h.terminator = &TerminationService{Store: st, Identity: h.identity, Publisher: h.pub, Now: clock.Now}
	return h
}

// seed creates a user straight in the store and returns its principal.
func (h *harness) seed(t *testing.T, company, email string, role domain.Role) domain.Principal {
	t.Helper()

	u, err := h.users.create(context.Background(), h.store, company, NewUser{
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return domain.Principal{UserID: u.ID, Email: u.Email, Role: u.Role, CompanyID: u.CompanyID}
}

// login performs a successful login and returns the caller with its session.
func (h *harness) login(t *testing.T, email string) (domain.Principal, LoginResult) {
	t.Helper()

	res, err := h.credentials.Login(context.Background(), LoginRequest{Email: email, Password: testPassword})
	require.NoError(t, err)

	p, err := h.identity.ValidateToken(context.Background(), res.Token.AccessToken)
	require.NoError(t, err)
	return p, res
}

func (h *harness) failLogin(t *testing.T, email string) error {
	t.Helper()
	_, err := h.credentials.Login(context.Background(), LoginRequest{Email: email, Password: "wrong-password"})
	require.Error(t, err)
	return err
}
