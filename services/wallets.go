package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ecodepin/ecodepin-api/apperrors"
	"github.com/ecodepin/ecodepin-api/config"
	"github.com/ecodepin/ecodepin-api/models"
)

type WalletType string

const (
	WalletMetaMask      WalletType = "metamask"
	WalletTrustWallet   WalletType = "trust_wallet"
	WalletWalletConnect WalletType = "walletconnect"
	WalletCoinbase      WalletType = "coinbase"
	WalletRainbow       WalletType = "rainbow"
)

var walletTypes = []WalletType{WalletMetaMask, WalletTrustWallet, WalletWalletConnect, WalletCoinbase, WalletRainbow}

func ParseWalletType(s string) (WalletType, bool) {
	if s == "" {
		return WalletMetaMask, true
	}
	t := WalletType(s)
	return t, slices.Contains(walletTypes, t)
}

type WalletInfo struct {
	Type        WalletType `json:"type"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon"`
	DownloadURL string     `json:"downloadUrl"`
	DeepLink    string     `json:"deepLink,omitempty"`
	ProjectID   *bool      `json:"projectId,omitempty"`
}

var walletInfo = map[WalletType]WalletInfo{
	WalletMetaMask: {
		Type:        WalletMetaMask,
		Name:        "MetaMask",
		Icon:        "metamask",
		DownloadURL: "https://metamask.io/download/",
		DeepLink:    "https://metamask.app.link/dapp/",
	},
	WalletTrustWallet: {
		Type:        WalletTrustWallet,
		Name:        "Trust Wallet",
		Icon:        "trust",
		DownloadURL: "https://trustwallet.com/download",
		DeepLink:    "https://link.trustwallet.com/open_url?url=",
	},
	WalletWalletConnect: {
		Type:        WalletWalletConnect,
		Name:        "WalletConnect",
		Icon:        "walletconnect",
		DownloadURL: "https://walletconnect.com/",
	},
}

type Chain struct {
	ChainID int64  `json:"chainId"`
	Name    string `json:"name"`
}

var chainNames = map[int64]string{
	1:     "Ethereum Mainnet",
	56:    "BNB Smart Chain",
	137:   "Polygon Mainnet",
	80002: "Polygon Amoy Testnet",
}

func ChainName(id int64) string {
	if name, ok := chainNames[id]; ok {
		return name
	}
	return "Unknown Chain"
}

type SupportedWallets struct {
	Wallets []WalletInfo `json:"wallets"`
	Chains  []Chain      `json:"chains"`
}

type WalletService struct {
	db  *gorm.DB
	cfg config.WalletConfig
	log *zap.Logger
}

func NewWalletService(db *gorm.DB, cfg config.WalletConfig, log *zap.Logger) *WalletService {
	return &WalletService{db: db, cfg: cfg, log: log}
}

// Supported lists the enabled wallet providers and the primary chain.
func (s *WalletService) Supported() SupportedWallets {
	wallets := make([]WalletInfo, 0, 3)
	if s.cfg.MetaMaskEnabled {
		wallets = append(wallets, walletInfo[WalletMetaMask])
	}
	if s.cfg.TrustWalletEnabled {
		wallets = append(wallets, walletInfo[WalletTrustWallet])
	}
	if s.cfg.WalletConnectEnabled {
		info := walletInfo[WalletWalletConnect]
		configured := s.cfg.WalletConnectProjectID != ""
		info.ProjectID = &configured
		wallets = append(wallets, info)
	}
	return SupportedWallets{
		Wallets: wallets,
		Chains:  []Chain{{ChainID: s.cfg.PrimaryChainID, Name: ChainName(s.cfg.PrimaryChainID)}},
	}
}

// ValidAddress reports whether address is 0x followed by 40 hex digits.
func ValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

func (s *WalletService) ConnectWallet(ctx context.Context, userID, address, walletType string) (*models.User, error) {
	if !ValidAddress(address) {
		return nil, apperrors.InvalidInput("Invalid EVM wallet address format")
	}
	wt, ok := ParseWalletType(walletType)
	if !ok {
		return nil, apperrors.InvalidInput("Invalid wallet type")
	}
	address = strings.ToLower(address)

	db := s.db.WithContext(ctx)
	var holder models.User
	err := db.Where("wallet_address = ? AND id <> ?", address, userID).First(&holder).Error
	if err == nil {
		return nil, apperrors.Conflict("Wallet already connected to another account")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.FromStorage(err, "User not found")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	chainID := s.cfg.PrimaryChainID
	typ := string(wt)
	user.WalletAddress = &address
	user.WalletType = &typ
	user.ChainID = &chainID

	if err := db.Model(user).Select("wallet_address", "wallet_type", "chain_id").Updates(user).Error; err != nil {
		return nil, apperrors.FromStorage(err, "User not found")
	}

	s.log.Info("wallet connected",
		zap.String("user_id", userID),
		zap.String("wallet_address", address),
		zap.String("wallet_type", typ))
	return user, nil
}

func (s *WalletService) DisconnectWallet(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(user).Updates(map[string]interface{}{
		"wallet_address": nil,
		"wallet_type":    nil,
		"chain_id":       nil,
	}).Error
	if err != nil {
		return nil, apperrors.FromStorage(err, "User not found")
	}
	user.WalletAddress, user.WalletType, user.ChainID = nil, nil, nil

	s.log.Info("wallet disconnected", zap.String("user_id", userID))
	return user, nil
}

func (s *WalletService) SwitchChain(ctx context.Context, userID string, chainID int64) (*models.User, error) {
	if chainID == 0 {
		return nil, apperrors.InvalidInput("chain_id required")
	}
	if !slices.Contains(s.cfg.SupportedChainIDs, chainID) {
		return nil, apperrors.InvalidInput("Unsupported chain ID")
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("chain_id", chainID).Error; err != nil {
		return nil, apperrors.FromStorage(err, "User not found")
	}
	user.ChainID = &chainID

	s.log.Info("chain switched", zap.String("user_id", userID), zap.Int64("chain_id", chainID))
	return user, nil
}

func (s *WalletService) load(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, apperrors.FromStorage(err, "User not found")
	}
	return &user, nil
}
