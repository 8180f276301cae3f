package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/port/repository"
)

const itemCollectionName = "marketplace_items"

// ItemMongoRepository persists ledger entries one document per
// (collection, token id). Monetary fields are stored as decimal strings
// because 256-bit amounts do not fit any BSON numeric type.
type ItemMongoRepository struct {
	db *mongo.Database
}

func NewItemMongoRepository(client *mongo.Client, dbName string) *ItemMongoRepository {
	return &ItemMongoRepository{db: client.Database(dbName)}
}

type itemDocument struct {
	Collection     string    `bson:"collection"`
	TokenID        uint64    `bson:"token_id"`
	Owner          string    `bson:"owner"`
	IsInternal     bool      `bson:"is_internal"`
	Sale           int       `bson:"sale"`
	TokenToBuy     string    `bson:"token_to_buy,omitempty"`
	Price          string    `bson:"price,omitempty"`
	Amount         string    `bson:"amount,omitempty"`
	SellForNative  bool      `bson:"sell_for_native,omitempty"`
	Seller         string    `bson:"seller,omitempty"`
	LastBidder     string    `bson:"last_bidder,omitempty"`
	LastBid        string    `bson:"last_bid,omitempty"`
	EndTime        time.Time `bson:"end_time,omitempty"`
	BidMinStandard string    `bson:"bid_min_standard,omitempty"`
	HasBids        bool      `bson:"has_bids,omitempty"`
}

func toItemDocument(item *domain.Item) *itemDocument {
	return &itemDocument{
		Collection:     string(item.Key.Collection),
		TokenID:        item.Key.TokenID,
		Owner:          string(item.Owner),
		IsInternal:     item.IsInternal,
		Sale:           int(item.Sale),
		TokenToBuy:     string(item.Listing.TokenToBuy),
		Price:          encodeU256(item.Listing.Price),
		Amount:         encodeU256(item.Listing.Amount),
		SellForNative:  item.Listing.SellForNative,
		Seller:         string(item.Auction.Seller),
		LastBidder:     string(item.Auction.LastBidder),
		LastBid:        encodeU256(item.Auction.LastBid),
		EndTime:        item.Auction.EndTime,
		BidMinStandard: encodeU256(item.Auction.BidMinStandard),
		HasBids:        item.Auction.HasBids,
	}
}

func toItemEntity(doc *itemDocument) (*domain.Item, error) {
	price, err := decodeU256(doc.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price in document: %w", err)
	}
	amount, err := decodeU256(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in document: %w", err)
	}
	lastBid, err := decodeU256(doc.LastBid)
	if err != nil {
		return nil, fmt.Errorf("invalid last bid in document: %w", err)
	}
	bidMin, err := decodeU256(doc.BidMinStandard)
	if err != nil {
		return nil, fmt.Errorf("invalid bid minimum in document: %w", err)
	}
	return &domain.Item{
		Key: domain.ItemKey{
			Collection: domain.Address(doc.Collection),
			TokenID:    doc.TokenID,
		},
		Owner:      domain.Address(doc.Owner),
		IsInternal: doc.IsInternal,
		Sale:       domain.SaleState(doc.Sale),
		Listing: domain.ListingRecord{
			TokenToBuy:    domain.Address(doc.TokenToBuy),
			Price:         price,
			Amount:        amount,
			SellForNative: doc.SellForNative,
		},
		Auction: domain.AuctionRecord{
			Seller:         domain.Address(doc.Seller),
			LastBidder:     domain.Address(doc.LastBidder),
			LastBid:        lastBid,
			EndTime:        doc.EndTime,
			BidMinStandard: bidMin,
			HasBids:        doc.HasBids,
		},
	}, nil
}

func encodeU256(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}

func decodeU256(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, nil
	}
	return uint256.FromDecimal(s)
}

func keyFilter(key domain.ItemKey) bson.M {
	return bson.M{"collection": string(key.Collection), "token_id": key.TokenID}
}

func (r *ItemMongoRepository) Get(ctx context.Context, key domain.ItemKey) (*domain.Item, error) {
	var doc itemDocument
	err := r.db.Collection(itemCollectionName).FindOne(ctx, keyFilter(key)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item from mongo: %w", err)
	}
	return toItemEntity(&doc)
}

func (r *ItemMongoRepository) Save(ctx context.Context, item *domain.Item) error {
	doc := toItemDocument(item)
	opts := options.Replace().SetUpsert(true)
	_, err := r.db.Collection(itemCollectionName).ReplaceOne(ctx, keyFilter(item.Key), doc, opts)
	if err != nil {
		return fmt.Errorf("failed to save item in mongo: %w", err)
	}
	return nil
}

func (r *ItemMongoRepository) Delete(ctx context.Context, key domain.ItemKey) error {
	res, err := r.db.Collection(itemCollectionName).DeleteOne(ctx, keyFilter(key))
	if err != nil {
		return fmt.Errorf("failed to delete item from mongo: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ItemMongoRepository) List(ctx context.Context) ([]*domain.Item, error) {
	cursor, err := r.db.Collection(itemCollectionName).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list items from mongo: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []itemDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode items from mongo: %w", err)
	}

	items := make([]*domain.Item, 0, len(docs))
	for i := range docs {
		item, err := toItemEntity(&docs[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
