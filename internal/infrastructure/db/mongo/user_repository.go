package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/core/ports"
	"github.com/atenas/admin-console/internal/infrastructure/memstore"
)

const (
	collectionUsers = "users"
	// insertAttempts bounds the retries when two inserts race for the same id.
	insertAttempts = 5
)

// TokenIssuer mints the token returned by Login and Register.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

// Verifier turns passwords into stored credentials and checks them.
type Verifier interface {
	Hash(password string) (string, error)
	Matches(verifier, password string) bool
}

// UserRepository implements ports.RecordStore on a MongoDB collection. The
// credential lives on the user document, so record and credential are
// always written together.
type UserRepository struct {
	col      *mongo.Collection
	issuer   TokenIssuer
	verifier Verifier
	log      zerolog.Logger
}

var _ ports.RecordStore = (*UserRepository)(nil)

type userDoc struct {
	ID         int64  `bson:"_id"`
	Name       string `bson:"name"`
	Email      string `bson:"email"`
	Role       string `bson:"role"`
	SecretHash string `bson:"secret_hash"`
}

func NewUserRepository(db *mongo.Database, issuer TokenIssuer, verifier Verifier, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		col:      db.Collection(collectionUsers),
		issuer:   issuer,
		verifier: verifier,
		log:      log,
	}
}

// EnsureIndexes creates the unique email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

// Seed inserts seed when the collection is empty. A populated collection is
// left alone.
func (r *UserRepository) Seed(ctx context.Context, seed []memstore.SeedUser) error {
	n, err := r.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, su := range seed {
		hash, err := r.verifier.Hash(su.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", su.User.Email, err)
		}
		doc := toDoc(su.User, hash)
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("seed %s: %w", su.User.Email, domain.ErrEmailExists)
			}
			return fmt.Errorf("seed %s: %w", su.User.Email, err)
		}
	}
	r.log.Info().Int("users", len(seed)).Msg("users collection seeded")
	return nil
}

// Login checks email and password. Unknown email and wrong password fail
// with the same error.
func (r *UserRepository) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	doc, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return domain.AuthResult{}, err
	}
	var stored string
	if doc != nil {
		stored = doc.SecretHash
	}
	if !r.verifier.Matches(stored, password) {
		return domain.AuthResult{}, domain.ErrInvalidCredentials
	}
	return r.authResult(doc.toDomain())
}

// Register creates a USER account and logs it in.
func (r *UserRepository) Register(ctx context.Context, in domain.RegisterInput) (domain.AuthResult, error) {
	if !in.AgreeTerms {
		return domain.AuthResult{}, domain.ErrTermsNotAccepted
	}
	hash, err := r.verifier.Hash(in.Password)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("register: %w", err)
	}
	user, err := r.insert(ctx, domain.User{Name: in.Name, Email: in.Email, Role: domain.RoleUser}, hash)
	if err != nil {
		return domain.AuthResult{}, err
	}
	r.log.Info().Int64("user_id", user.ID).Msg("user registered")
	return r.authResult(user)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return doc.toDomain().Clone(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	doc, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	return doc.toDomain().Clone(), nil
}

// List returns all users ordered by id, which is their creation order.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UserRepository) Create(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	hash, err := r.verifier.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user, err := r.insert(ctx, domain.User{Name: in.Name, Email: in.Email, Role: in.Role}, hash)
	if err != nil {
		return nil, err
	}
	r.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user.Clone(), nil
}

// Update applies the non-empty fields of in. A taken email fails with
// ErrEmailExists through the unique index.
func (r *UserRepository) Update(ctx context.Context, id int64, in domain.UserUpdate) (*domain.User, error) {
	var hash string
	if in.Password != "" {
		h, err := r.verifier.Hash(in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
		hash = h
	}

	set := updateSet(in, hash)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrEmailExists
	case err != nil:
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	r.log.Info().Int64("user_id", id).Msg("user updated")
	return doc.toDomain().Clone(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	r.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// Ping reports whether the server is reachable.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

// insert stores user under max(_id)+1. A duplicate key on _id means another
// writer took the id first, so the insert is retried; a duplicate on email
// is final.
func (r *UserRepository) insert(ctx context.Context, user domain.User, hash string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < insertAttempts; attempt++ {
		id, err := r.nextID(ctx)
		if err != nil {
			return domain.User{}, err
		}
		user.ID = id

		_, err = r.col.InsertOne(ctx, toDoc(user, hash))
		if err == nil {
			return user, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return domain.User{}, fmt.Errorf("insert user: %w", err)
		}
		if _, ferr := r.findOne(ctx, bson.M{"email": user.Email}); ferr == nil {
			return domain.User{}, domain.ErrEmailExists
		}
	}
	return domain.User{}, fmt.Errorf("insert user: no free id after %d attempts", insertAttempts)
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var last userDoc
	err := r.col.FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find last user id: %w", err)
	}
	return last.ID + 1, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*userDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

func (r *UserRepository) authResult(user domain.User) (domain.AuthResult, error) {
	tok, err := r.issuer.Issue(user)
	if err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Token: tok, User: user}, nil
}

func toDoc(u domain.User, hash string) userDoc {
	return userDoc{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       string(u.Role),
		SecretHash: hash,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:    d.ID,
		Name:  d.Name,
		Email: d.Email,
		Role:  domain.Role(d.Role),
	}
}

// updateSet builds the $set document for in. Empty fields are skipped.
func updateSet(in domain.UserUpdate, hash string) bson.M {
	set := bson.M{}
	if in.Name != "" {
		set["name"] = in.Name
	}
	if in.Email != "" {
		set["email"] = in.Email
	}
	if in.Role != "" {
		set["role"] = string(in.Role)
	}
	if hash != "" {
		set["secret_hash"] = hash
	}
	return set
}
