package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/port/cache"
	"github.com/NiceArti/Marketplace/internal/port/repository"
)

// EventPublisher receives a notification for every committed state
// transition. Publishing is best-effort: failures are logged, never surfaced.
type EventPublisher interface {
	PublishItemCreated(ctx context.Context, key domain.ItemKey, owner domain.Address, amount string) error
	PublishItemListed(ctx context.Context, key domain.ItemKey, seller domain.Address, price string) error
	PublishListingCancelled(ctx context.Context, key domain.ItemKey, seller domain.Address) error
	PublishItemSold(ctx context.Context, key domain.ItemKey, buyer domain.Address, price string) error
	PublishAuctionStarted(ctx context.Context, key domain.ItemKey, seller domain.Address, startPrice string) error
	PublishBidPlaced(ctx context.Context, key domain.ItemKey, bidder domain.Address, bid string) error
	PublishAuctionSettled(ctx context.Context, key domain.ItemKey, winner domain.Address, bid string) error
	PublishAuctionCancelled(ctx context.Context, key domain.ItemKey, seller domain.Address) error
	PublishItemWithdrawn(ctx context.Context, key domain.ItemKey, owner domain.Address) error
}

const (
	defaultAuctionDuration = 72 * time.Hour
	defaultCacheTTL        = 5 * time.Minute
)

// MarketplaceConfig carries the marketplace identity and the two internal
// collections it mints into.
type MarketplaceConfig struct {
	MarketAddress   domain.Address
	Internal721     domain.Address
	Internal1155    domain.Address
	AuctionDuration time.Duration
	CacheTTL        time.Duration
}

// MarketplaceUseCase is the marketplace ledger core: item registry, listing
// book, and auction book over one storage keyspace. Mutating operations are
// serialized by a single mutex; every operation validates against registry
// ownership first, runs its collaborator transfers, and only then commits
// ledger state, so a collaborator failure leaves no partial effect.
type MarketplaceUseCase struct {
	repo      repository.ItemRepository
	tokens    domain.TokenDirectory
	bank      domain.NativeLedger
	publisher EventPublisher
	cacheRepo cache.CacheRepository
	clock     domain.Clock
	logger    *zap.Logger

	market          domain.Address
	internal721     domain.Address
	internal1155    domain.Address
	auctionDuration time.Duration
	cacheTTL        time.Duration

	mu sync.Mutex
}

func NewMarketplaceUseCase(
	repo repository.ItemRepository,
	tokens domain.TokenDirectory,
	bank domain.NativeLedger,
	publisher EventPublisher,
	cacheRepo cache.CacheRepository,
	clock domain.Clock,
	cfg MarketplaceConfig,
	logger *zap.Logger,
) *MarketplaceUseCase {
	auctionDuration := cfg.AuctionDuration
	if auctionDuration <= 0 {
		auctionDuration = defaultAuctionDuration
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if clock == nil {
		clock = domain.SystemClock()
	}

	return &MarketplaceUseCase{
		repo:            repo,
		tokens:          tokens,
		bank:            bank,
		publisher:       publisher,
		cacheRepo:       cacheRepo,
		clock:           clock,
		logger:          logger,
		market:          cfg.MarketAddress,
		internal721:     cfg.Internal721,
		internal1155:    cfg.Internal1155,
		auctionDuration: auctionDuration,
		cacheTTL:        cacheTTL,
	}
}

func itemCacheKey(key domain.ItemKey) string {
	return fmt.Sprintf("item:%s:%d", key.Collection, key.TokenID)
}

// CreateItem721 mints a new single-owner token into the internal collection
// with the marketplace as custodian and the caller as owner of record.
func (uc *MarketplaceUseCase) CreateItem721(ctx context.Context, caller domain.Address) (domain.ItemKey, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	nft, err := uc.tokens.NFT(uc.internal721)
	if err != nil {
		return domain.ItemKey{}, domain.ErrUnknownCollection
	}

	id, err := nft.MintTo(ctx, uc.market)
	if err != nil {
		uc.logger.Error("Failed to mint internal 721 token", zap.Error(err))
		return domain.ItemKey{}, fmt.Errorf("MarketplaceUseCase.CreateItem721: mint failed: %w", err)
	}

	item := &domain.Item{
		Key:        domain.ItemKey{Collection: uc.internal721, TokenID: id},
		Owner:      caller,
		IsInternal: true,
		Sale:       domain.SaleNone,
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		uc.logger.Error("Failed to save minted item", zap.Error(err), zap.Uint64("token_id", id))
		return domain.ItemKey{}, fmt.Errorf("MarketplaceUseCase.CreateItem721: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, item.Key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemCreated(ctx, item.Key, caller, "1"); errPub != nil {
			uc.logger.Warn("Failed to publish item created event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return item.Key, nil
}

// CreateItem1155 mints amount units of a new multi-unit token into the
// internal collection.
func (uc *MarketplaceUseCase) CreateItem1155(ctx context.Context, caller domain.Address, amount *uint256.Int) (domain.ItemKey, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if amount == nil || amount.IsZero() {
		return domain.ItemKey{}, domain.ErrInvalidAmount
	}

	multi, err := uc.tokens.MultiToken(uc.internal1155)
	if err != nil {
		return domain.ItemKey{}, domain.ErrUnknownCollection
	}

	id, err := multi.NextID(ctx)
	if err != nil {
		return domain.ItemKey{}, fmt.Errorf("MarketplaceUseCase.CreateItem1155: id assignment failed: %w", err)
	}
	if err := multi.MintTo(ctx, uc.market, id, amount); err != nil {
		uc.logger.Error("Failed to mint internal 1155 token", zap.Error(err), zap.Uint64("token_id", id))
		return domain.ItemKey{}, fmt.Errorf("MarketplaceUseCase.CreateItem1155: mint failed: %w", err)
	}

	item := &domain.Item{
		Key:        domain.ItemKey{Collection: uc.internal1155, TokenID: id},
		Owner:      caller,
		IsInternal: true,
		Sale:       domain.SaleNone,
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		return domain.ItemKey{}, fmt.Errorf("MarketplaceUseCase.CreateItem1155: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, item.Key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemCreated(ctx, item.Key, caller, amount.Dec()); errPub != nil {
			uc.logger.Warn("Failed to publish item created event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return item.Key, nil
}

// prepareListing runs the guards and custody pull shared by ListItem,
// ListItemETH, and ListItemOnAuction. It returns the item ready to carry a
// fresh sale record, not yet saved. For items the marketplace has never seen,
// the custody pull doubles as the ownership proof: the collection's own
// approval check decides, and its error surfaces unchanged.
func (uc *MarketplaceUseCase) prepareListing(ctx context.Context, caller, collection domain.Address, id uint64, amount *uint256.Int) (*domain.Item, error) {
	kind := uc.tokens.Kind(collection)
	if kind == domain.KindUnknown {
		return nil, domain.ErrUnknownCollection
	}
	if amount == nil || amount.IsZero() {
		return nil, domain.ErrInvalidAmount
	}
	if kind == domain.KindNFT && !amount.Eq(uint256.NewInt(1)) {
		return nil, domain.ErrInvalidAmount
	}

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	switch {
	case err == nil:
		if item.Listed() {
			return nil, domain.ErrAlreadyListed
		}
		if item.Owner != caller {
			return nil, domain.ErrNotOwner
		}
	case errors.Is(err, repository.ErrNotFound):
		item = &domain.Item{Key: key}
	default:
		return nil, fmt.Errorf("prepareListing: repository get failed: %w", err)
	}

	switch kind {
	case domain.KindNFT:
		nft, err := uc.tokens.NFT(collection)
		if err != nil {
			return nil, domain.ErrUnknownCollection
		}
		custodian, err := nft.OwnerOf(ctx, id)
		if err != nil {
			return nil, err
		}
		if custodian != uc.market {
			if err := nft.TransferFrom(ctx, uc.market, caller, uc.market, id); err != nil {
				return nil, err
			}
		}
	case domain.KindMultiToken:
		multi, err := uc.tokens.MultiToken(collection)
		if err != nil {
			return nil, domain.ErrUnknownCollection
		}
		held, err := multi.BalanceOf(ctx, uc.market, id)
		if err != nil {
			return nil, err
		}
		if held.Lt(amount) {
			if err := multi.SafeTransferFrom(ctx, uc.market, caller, uc.market, id, amount); err != nil {
				return nil, err
			}
		}
	}

	item.Owner = caller
	return item, nil
}

// ListItem puts an item on fixed-price sale for a payment token. Price is
// the unit price times the quantity.
func (uc *MarketplaceUseCase) ListItem(ctx context.Context, caller, collection domain.Address, id uint64, paymentToken domain.Address, unitPrice, amount *uint256.Int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.tokens.Payment(paymentToken); err != nil {
		return domain.ErrUnknownPaymentToken
	}

	item, err := uc.prepareListing(ctx, caller, collection, id, amount)
	if err != nil {
		return err
	}

	price := new(uint256.Int).Mul(orZero(unitPrice), amount)
	item.Sale = domain.SaleFixedPrice
	item.Listing = domain.ListingRecord{
		TokenToBuy: paymentToken,
		Price:      price,
		Amount:     new(uint256.Int).Set(amount),
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.ListItem: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, item.Key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemListed(ctx, item.Key, caller, price.Dec()); errPub != nil {
			uc.logger.Warn("Failed to publish item listed event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// ListItemETH puts an item on fixed-price sale for native currency.
func (uc *MarketplaceUseCase) ListItemETH(ctx context.Context, caller, collection domain.Address, id uint64, unitPrice, amount *uint256.Int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	item, err := uc.prepareListing(ctx, caller, collection, id, amount)
	if err != nil {
		return err
	}

	price := new(uint256.Int).Mul(orZero(unitPrice), amount)
	item.Sale = domain.SaleFixedPrice
	item.Listing = domain.ListingRecord{
		TokenToBuy:    domain.ZeroAddress,
		Price:         price,
		Amount:        new(uint256.Int).Set(amount),
		SellForNative: true,
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.ListItemETH: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, item.Key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemListed(ctx, item.Key, caller, price.Dec()); errPub != nil {
			uc.logger.Warn("Failed to publish item listed event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// CancelListing takes a fixed-price listing down. No funds move; custody
// stays with the marketplace until the owner withdraws or relists.
func (uc *MarketplaceUseCase) CancelListing(ctx context.Context, caller, collection domain.Address, id uint64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("MarketplaceUseCase.CancelListing: repository get failed: %w", err)
	}
	if item.Owner != caller {
		return domain.ErrNotOwner
	}
	if item.Sale != domain.SaleFixedPrice {
		return domain.ErrNotListed
	}

	item.ClearSale()
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.CancelListing: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishListingCancelled(ctx, key, caller); errPub != nil {
			uc.logger.Warn("Failed to publish listing cancelled event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// BuyItem settles a fixed-price listing. The native path requires the
// attached value to match the price exactly; the token path pulls the price
// from the buyer's allowance. Payment goes straight to the seller, then
// custody and ownership of record move to the buyer.
func (uc *MarketplaceUseCase) BuyItem(ctx context.Context, buyer, collection domain.Address, id uint64, paidNative *uint256.Int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotListed
		}
		return fmt.Errorf("MarketplaceUseCase.BuyItem: repository get failed: %w", err)
	}
	if item.Sale != domain.SaleFixedPrice {
		return domain.ErrNotListed
	}

	seller := item.Owner
	price := item.Listing.Price

	if item.Listing.SellForNative {
		if paidNative == nil || !paidNative.Eq(price) {
			return domain.ErrInsufficientPayment
		}
		if err := uc.bank.Transfer(ctx, buyer, seller, price); err != nil {
			return err
		}
	} else {
		if paidNative != nil && !paidNative.IsZero() {
			return domain.ErrInsufficientPayment
		}
		pt, err := uc.tokens.Payment(item.Listing.TokenToBuy)
		if err != nil {
			return domain.ErrUnknownPaymentToken
		}
		if err := pt.TransferFrom(ctx, uc.market, buyer, seller, price); err != nil {
			return err
		}
	}

	if err := uc.releaseCustody(ctx, item, buyer, item.Listing.Amount); err != nil {
		return err
	}

	soldFor := price.Dec()
	item.Owner = buyer
	item.ClearSale()
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.BuyItem: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemSold(ctx, key, buyer, soldFor); errPub != nil {
			uc.logger.Warn("Failed to publish item sold event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// ListItemOnAuction starts a timed auction. The anchor listing record is
// written exactly as ListItem writes it, and the auction record is seeded
// with the seller as placeholder bidder at the start price. The end time is
// fixed at creation and bidding does not extend it.
func (uc *MarketplaceUseCase) ListItemOnAuction(ctx context.Context, caller, collection domain.Address, id uint64, paymentToken domain.Address, startPrice, amount, minBidIncrement *uint256.Int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, err := uc.tokens.Payment(paymentToken); err != nil {
		return domain.ErrUnknownPaymentToken
	}

	item, err := uc.prepareListing(ctx, caller, collection, id, amount)
	if err != nil {
		return err
	}

	price := new(uint256.Int).Mul(orZero(startPrice), amount)
	item.Sale = domain.SaleAuction
	item.Listing = domain.ListingRecord{
		TokenToBuy: paymentToken,
		Price:      price,
		Amount:     new(uint256.Int).Set(amount),
	}
	item.Auction = domain.AuctionRecord{
		Seller:         caller,
		LastBidder:     caller,
		LastBid:        new(uint256.Int).Set(price),
		EndTime:        uc.clock.Now().Add(uc.auctionDuration),
		BidMinStandard: orZero(minBidIncrement),
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.ListItemOnAuction: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, item.Key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishAuctionStarted(ctx, item.Key, caller, price.Dec()); errPub != nil {
			uc.logger.Warn("Failed to publish auction started event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// MakeBid escrows a new highest bid and refunds the previous one. The seed
// record never escrowed funds, so nothing is refunded while HasBids is false.
func (uc *MarketplaceUseCase) MakeBid(ctx context.Context, bidder, collection domain.Address, id uint64, bid *uint256.Int) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotListed
		}
		return fmt.Errorf("MarketplaceUseCase.MakeBid: repository get failed: %w", err)
	}
	if item.Sale != domain.SaleAuction {
		return domain.ErrNotListed
	}
	if !uc.clock.Now().Before(item.Auction.EndTime) {
		return domain.ErrAuctionEnded
	}

	bid = orZero(bid)
	floor := new(uint256.Int).Add(item.Auction.LastBid, item.Auction.BidMinStandard)
	if bid.Lt(floor) {
		return domain.ErrBidTooLow
	}

	pt, err := uc.tokens.Payment(item.Listing.TokenToBuy)
	if err != nil {
		return domain.ErrUnknownPaymentToken
	}
	if err := pt.TransferFrom(ctx, uc.market, bidder, uc.market, bid); err != nil {
		return err
	}
	if item.Auction.HasBids {
		if err := pt.Transfer(ctx, uc.market, item.Auction.LastBidder, item.Auction.LastBid); err != nil {
			return err
		}
	}

	item.Auction.LastBidder = bidder
	item.Auction.LastBid = new(uint256.Int).Set(bid)
	item.Auction.HasBids = true
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.MakeBid: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishBidPlaced(ctx, key, bidder, bid.Dec()); errPub != nil {
			uc.logger.Warn("Failed to publish bid placed event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// GetAuctionItem lets the winner settle an ended auction: the escrowed bid
// goes to the seller and the item goes to the winner. When no real bid was
// placed the seller is its own winner and the call degenerates to reclaiming
// custody.
func (uc *MarketplaceUseCase) GetAuctionItem(ctx context.Context, caller, collection domain.Address, id uint64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNotListed
		}
		return fmt.Errorf("MarketplaceUseCase.GetAuctionItem: repository get failed: %w", err)
	}
	if item.Sale != domain.SaleAuction {
		return domain.ErrNotListed
	}
	if uc.clock.Now().Before(item.Auction.EndTime) {
		return domain.ErrAuctionNotEnded
	}
	if caller != item.Auction.LastBidder {
		return domain.ErrNotAuctionWinner
	}

	if item.Auction.HasBids {
		pt, err := uc.tokens.Payment(item.Listing.TokenToBuy)
		if err != nil {
			return domain.ErrUnknownPaymentToken
		}
		if err := pt.Transfer(ctx, uc.market, item.Auction.Seller, item.Auction.LastBid); err != nil {
			return err
		}
	}
	if err := uc.releaseCustody(ctx, item, caller, item.Listing.Amount); err != nil {
		return err
	}

	wonFor := item.Auction.LastBid.Dec()
	item.Owner = caller
	item.ClearSale()
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.GetAuctionItem: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishAuctionSettled(ctx, key, caller, wonFor); errPub != nil {
			uc.logger.Warn("Failed to publish auction settled event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// CancelAuction lets the seller call off a running auction. The standing
// bid, if real, is refunded; custody of an externally-owned item returns to
// the seller's wallet, while internally-minted items simply stay in escrow.
func (uc *MarketplaceUseCase) CancelAuction(ctx context.Context, caller, collection domain.Address, id uint64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("MarketplaceUseCase.CancelAuction: repository get failed: %w", err)
	}
	if item.Sale != domain.SaleAuction {
		return domain.ErrNotListed
	}
	if !uc.clock.Now().Before(item.Auction.EndTime) {
		return domain.ErrAuctionEnded
	}
	if item.Owner != caller {
		return domain.ErrNotOwner
	}

	if item.Auction.HasBids {
		pt, err := uc.tokens.Payment(item.Listing.TokenToBuy)
		if err != nil {
			return domain.ErrUnknownPaymentToken
		}
		if err := pt.Transfer(ctx, uc.market, item.Auction.LastBidder, item.Auction.LastBid); err != nil {
			return err
		}
	}
	if !item.IsInternal {
		if err := uc.releaseCustody(ctx, item, caller, item.Listing.Amount); err != nil {
			return err
		}
	}

	item.ClearSale()
	if err := uc.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("MarketplaceUseCase.CancelAuction: save failed: %w", err)
	}

	uc.invalidateInfo(ctx, key)
	if uc.publisher != nil {
		if errPub := uc.publisher.PublishAuctionCancelled(ctx, key, caller); errPub != nil {
			uc.logger.Warn("Failed to publish auction cancelled event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// GetMyItem withdraws an unlisted item from marketplace custody into the
// owner's own wallet: the single token for the single-owner kind, the full
// escrowed balance for the multi-unit kind. The registry keeps tracking the
// item afterwards.
func (uc *MarketplaceUseCase) GetMyItem(ctx context.Context, caller, collection domain.Address, id uint64) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("MarketplaceUseCase.GetMyItem: repository get failed: %w", err)
	}
	if item.Owner != caller {
		return domain.ErrNotOwner
	}
	if item.Listed() {
		return domain.ErrAlreadyListed
	}

	switch uc.tokens.Kind(collection) {
	case domain.KindNFT:
		nft, err := uc.tokens.NFT(collection)
		if err != nil {
			return domain.ErrUnknownCollection
		}
		if err := nft.TransferFrom(ctx, uc.market, uc.market, caller, id); err != nil {
			return err
		}
	case domain.KindMultiToken:
		multi, err := uc.tokens.MultiToken(collection)
		if err != nil {
			return domain.ErrUnknownCollection
		}
		held, err := multi.BalanceOf(ctx, uc.market, id)
		if err != nil {
			return err
		}
		if !held.IsZero() {
			if err := multi.SafeTransferFrom(ctx, uc.market, uc.market, caller, id, held); err != nil {
				return err
			}
		}
	default:
		return domain.ErrUnknownCollection
	}

	if uc.publisher != nil {
		if errPub := uc.publisher.PublishItemWithdrawn(ctx, key, caller); errPub != nil {
			uc.logger.Warn("Failed to publish item withdrawn event", zap.Error(errPub), zap.Uint64("token_id", id))
		}
	}
	return nil
}

// GeneralInfo is the combined registry and listing read surface. Unknown
// keys return a zero-valued record, matching the contract's empty-struct
// reads. Results are cached; every mutation of the key invalidates.
func (uc *MarketplaceUseCase) GeneralInfo(ctx context.Context, collection domain.Address, id uint64) (*domain.GeneralInfo, error) {
	key := domain.ItemKey{Collection: collection, TokenID: id}
	cacheKey := itemCacheKey(key)

	if uc.cacheRepo != nil {
		cachedBytes, err := uc.cacheRepo.Get(ctx, cacheKey)
		if err == nil {
			var info domain.GeneralInfo
			if unmarshalErr := json.Unmarshal(cachedBytes, &info); unmarshalErr == nil {
				return &info, nil
			}
			if delErr := uc.cacheRepo.Delete(ctx, cacheKey); delErr != nil {
				uc.logger.Warn("Failed to delete corrupted cache entry", zap.String("key", cacheKey), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			uc.logger.Warn("Failed to get item info from cache", zap.Error(err), zap.String("key", cacheKey))
		}
	}

	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return emptyGeneralInfo(), nil
		}
		return nil, fmt.Errorf("MarketplaceUseCase.GeneralInfo: repository get failed: %w", err)
	}

	info := &domain.GeneralInfo{
		Owner:         item.Owner,
		IsInternal:    item.IsInternal,
		Listed:        item.Listed(),
		TokenToBuy:    item.Listing.TokenToBuy,
		Price:         orZero(item.Listing.Price),
		Amount:        orZero(item.Listing.Amount),
		SellForNative: item.Listing.SellForNative,
	}
	if info.TokenToBuy == "" {
		info.TokenToBuy = domain.ZeroAddress
	}

	if uc.cacheRepo != nil {
		if infoBytes, marshalErr := json.Marshal(info); marshalErr == nil {
			if setErr := uc.cacheRepo.Set(ctx, cacheKey, infoBytes, uc.cacheTTL); setErr != nil {
				uc.logger.Warn("Failed to set item info in cache", zap.Error(setErr), zap.String("key", cacheKey))
			}
		}
	}
	return info, nil
}

// AuctionInfo is the auction read surface, zero-valued when no auction is
// running.
func (uc *MarketplaceUseCase) AuctionInfo(ctx context.Context, collection domain.Address, id uint64) (*domain.AuctionInfo, error) {
	key := domain.ItemKey{Collection: collection, TokenID: id}
	item, err := uc.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return emptyAuctionInfo(), nil
		}
		return nil, fmt.Errorf("MarketplaceUseCase.AuctionInfo: repository get failed: %w", err)
	}
	if item.Sale != domain.SaleAuction {
		return emptyAuctionInfo(), nil
	}
	return &domain.AuctionInfo{
		LastBidder:     item.Auction.LastBidder,
		LastBid:        orZero(item.Auction.LastBid),
		EndTime:        item.Auction.EndTime,
		BidMinStandard: orZero(item.Auction.BidMinStandard),
	}, nil
}

func (uc *MarketplaceUseCase) releaseCustody(ctx context.Context, item *domain.Item, to domain.Address, amount *uint256.Int) error {
	switch uc.tokens.Kind(item.Key.Collection) {
	case domain.KindNFT:
		nft, err := uc.tokens.NFT(item.Key.Collection)
		if err != nil {
			return domain.ErrUnknownCollection
		}
		return nft.TransferFrom(ctx, uc.market, uc.market, to, item.Key.TokenID)
	case domain.KindMultiToken:
		multi, err := uc.tokens.MultiToken(item.Key.Collection)
		if err != nil {
			return domain.ErrUnknownCollection
		}
		return multi.SafeTransferFrom(ctx, uc.market, uc.market, to, item.Key.TokenID, amount)
	default:
		return domain.ErrUnknownCollection
	}
}

func (uc *MarketplaceUseCase) invalidateInfo(ctx context.Context, key domain.ItemKey) {
	if uc.cacheRepo == nil {
		return
	}
	if err := uc.cacheRepo.Delete(ctx, itemCacheKey(key)); err != nil {
		uc.logger.Warn("Failed to invalidate item info cache", zap.String("key", itemCacheKey(key)), zap.Error(err))
	}
}

func emptyGeneralInfo() *domain.GeneralInfo {
	return &domain.GeneralInfo{
		Owner:      domain.ZeroAddress,
		TokenToBuy: domain.ZeroAddress,
		Price:      uint256.NewInt(0),
		Amount:     uint256.NewInt(0),
	}
}

func emptyAuctionInfo() *domain.AuctionInfo {
	return &domain.AuctionInfo{
		LastBidder:     domain.ZeroAddress,
		LastBid:        uint256.NewInt(0),
		BidMinStandard: uint256.NewInt(0),
	}
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return v
}
