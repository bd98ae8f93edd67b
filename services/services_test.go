package services

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/catalog"
	"github.com/ecodepin/ecodepin-api/config"
	"github.com/ecodepin/ecodepin-api/testutil"
	"github.com/ecodepin/ecodepin-api/utils"
)

type MockIdentityProvider struct {
	FetchSessionDataFunc func(ctx context.Context, sessionID string) (*utils.IdentityProfile, error)
}

func (m *MockIdentityProvider) FetchSessionData(ctx context.Context, sessionID string) (*utils.IdentityProfile, error) {
	return m.FetchSessionDataFunc(ctx, sessionID)
}

// profiles returns a provider that knows the given session ids.
func profiles(known map[string]*utils.IdentityProfile) *MockIdentityProvider {
	return &MockIdentityProvider{
		FetchSessionDataFunc: func(ctx context.Context, sessionID string) (*utils.IdentityProfile, error) {
			if p, ok := known[sessionID]; ok {
				return p, nil
			}
			return nil, errInvalidSession
		},
	}
}

type fixture struct {
	db          *gorm.DB
	clock       *testutil.Clock
	catalog     *catalog.Catalog
	auth        *AuthService
	investments *InvestmentService
	payments    *PaymentService
	wallets     *WalletService
}

func testWalletConfig() config.WalletConfig {
	return config.WalletConfig{
		MetaMaskEnabled:      true,
		TrustWalletEnabled:   true,
		WalletConnectEnabled: false,
		PrimaryChainID:       137,
		SupportedChainIDs:    []int64{1, 137, 56},
	}
}

func newFixture(t *testing.T, identity utils.IdentityProviderInterface) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := testutil.NewClock()
	cat := catalog.MustLoad()
	log := zap.NewNop()

	investments := NewInvestmentService(db, cat, log).WithClock(clock.Now)
	return &fixture{
		db:          db,
		clock:       clock,
		catalog:     cat,
		auth:        NewAuthService(db, identity, DefaultSessionTTL, log).WithClock(clock.Now),
		investments: investments,
		payments:    NewPaymentService(db, cat, investments, log).WithClock(clock.Now),
		wallets:     NewWalletService(db, testWalletConfig(), log),
	}
}
