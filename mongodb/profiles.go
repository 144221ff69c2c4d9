package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finora/api/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Amounts are stored as decimal strings so no precision is lost in BSON.
type profileDocument struct {
	UserID                string           `bson:"user_id"`
	Income                string           `bson:"income"`
	Expenses              expensesDocument `bson:"expenses"`
	Loans                 []loanDocument   `bson:"loans"`
	Goals                 []goalDocument   `bson:"goals"`
	RiskAppetite          string           `bson:"risk_appetite"`
	InvestmentPreferences []string         `bson:"investment_preferences"`
	UpdatedAt             time.Time        `bson:"updated_at"`
}

type expensesDocument struct {
	Rent          string                  `bson:"rent"`
	Groceries     string                  `bson:"groceries"`
	Health        string                  `bson:"health"`
	Miscellaneous string                  `bson:"miscellaneous"`
	Entertainment string                  `bson:"entertainment"`
	Custom        []customExpenseDocument `bson:"custom"`
}

type customExpenseDocument struct {
	Name   string `bson:"name"`
	Amount string `bson:"amount"`
}

type loanDocument struct {
	Amount              string `bson:"amount"`
	DurationYears       string `bson:"duration_years"`
	InterestRatePercent string `bson:"interest_rate_percent"`
}

type goalDocument struct {
	Type          string `bson:"type"`
	TargetAmount  string `bson:"target_amount"`
	TimelineYears string `bson:"timeline_years"`
}

// ProfileStore keeps one document per user in the user_profiles collection.
type ProfileStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProfileStore(client *mongo.Client, database string) *ProfileStore {
	return &ProfileStore{
		collection: client.Database(database).Collection(ProfileCollection),
		now:        time.Now,
	}
}

// EnsureIndexes creates the unique user_id index.
func (s *ProfileStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating profile index: %w", err)
	}
	return nil
}

func (s *ProfileStore) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var doc profileDocument
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}

	profile, err := fromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("error decoding profile for user %s: %w", userID, err)
	}
	return &profile, nil
}

func (s *ProfileStore) SaveProfile(ctx context.Context, userID string, profile models.Profile) error {
	doc := toDocument(userID, profile, s.now())
	_, err := s.collection.ReplaceOne(ctx, bson.M{"user_id": userID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error replacing profile: %w", err)
	}
	return nil
}

func toDocument(userID string, p models.Profile, now time.Time) profileDocument {
	doc := profileDocument{
		UserID: userID,
		Income: p.Income.String(),
		Expenses: expensesDocument{
			Rent:          p.Expenses.Rent.String(),
			Groceries:     p.Expenses.Groceries.String(),
			Health:        p.Expenses.Health.String(),
			Miscellaneous: p.Expenses.Miscellaneous.String(),
			Entertainment: p.Expenses.Entertainment.String(),
			Custom:        make([]customExpenseDocument, 0, len(p.Expenses.Custom)),
		},
		Loans:                 make([]loanDocument, 0, len(p.Loans)),
		Goals:                 make([]goalDocument, 0, len(p.Goals)),
		RiskAppetite:          string(p.RiskAppetite),
		InvestmentPreferences: append([]string{}, p.InvestmentPreferences...),
		UpdatedAt:             now.UTC(),
	}
	for _, c := range p.Expenses.Custom {
		doc.Expenses.Custom = append(doc.Expenses.Custom, customExpenseDocument{Name: c.Name, Amount: c.Amount.String()})
	}
	for _, l := range p.Loans {
		doc.Loans = append(doc.Loans, loanDocument{
			Amount:              l.Amount.String(),
			DurationYears:       l.DurationYears.String(),
			InterestRatePercent: l.InterestRatePercent.String(),
		})
	}
	for _, g := range p.Goals {
		doc.Goals = append(doc.Goals, goalDocument{
			Type:          g.Type,
			TargetAmount:  g.TargetAmount.String(),
			TimelineYears: g.TimelineYears.String(),
		})
	}
	return doc
}

// fromDocument tolerates missing fields (older or empty documents) by
// treating them as zero; a present but unparsable amount is an error.
func fromDocument(doc profileDocument) (models.Profile, error) {
	var errs []error
	num := func(field, s string) decimal.Decimal {
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
			return decimal.Zero
		}
		return d
	}

	p := models.Empty()
	p.Income = num("income", doc.Income)
	p.Expenses.Rent = num("rent", doc.Expenses.Rent)
	p.Expenses.Groceries = num("groceries", doc.Expenses.Groceries)
	p.Expenses.Health = num("health", doc.Expenses.Health)
	p.Expenses.Miscellaneous = num("miscellaneous", doc.Expenses.Miscellaneous)
	p.Expenses.Entertainment = num("entertainment", doc.Expenses.Entertainment)
	for _, c := range doc.Expenses.Custom {
		p.Expenses.Custom = append(p.Expenses.Custom, models.CustomExpense{Name: c.Name, Amount: num("custom", c.Amount)})
	}
	for _, l := range doc.Loans {
		p.Loans = append(p.Loans, models.Loan{
			Amount:              num("loan amount", l.Amount),
			DurationYears:       num("loan duration", l.DurationYears),
			InterestRatePercent: num("loan interest", l.InterestRatePercent),
		})
	}
	for _, g := range doc.Goals {
		p.Goals = append(p.Goals, models.Goal{
			Type:          g.Type,
			TargetAmount:  num("goal target", g.TargetAmount),
			TimelineYears: num("goal timeline", g.TimelineYears),
		})
	}
	if doc.RiskAppetite != "" {
		p.RiskAppetite = models.RiskAppetite(doc.RiskAppetite)
	}
	p.InvestmentPreferences = append(p.InvestmentPreferences, doc.InvestmentPreferences...)

	if len(errs) > 0 {
		return models.Profile{}, errors.Join(errs...)
	}
	return p, nil
}
