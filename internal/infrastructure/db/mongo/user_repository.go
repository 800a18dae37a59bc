package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rupagen/marketplace-api/internal/core/domain"
)

const usersCollection = "users"

type UserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection), timeout: defaultTimeout}
}

// EnsureIndexes creates the unique email index. Concurrent registrations for
// the same email rely on it.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

type mongoDocuments struct {
	BuktiKemitraan    string `bson:"buktiKemitraan,omitempty"`
	DokumenLegal      string `bson:"dokumenLegal,omitempty"`
	SuratPernyataanIP string `bson:"suratPernyataanIp,omitempty"`
	DokumenKYC        string `bson:"dokumenKYC,omitempty"`
	DokumenBilling    string `bson:"dokumenBilling,omitempty"`
	DokumenPajak      string `bson:"dokumenPajak,omitempty"`
}

type mongoUser struct {
	ID                 primitive.ObjectID     `bson:"_id,omitempty"`
	Email              string                 `bson:"email"`
	PasswordHash       string                 `bson:"password_hash"`
	FullName           string                 `bson:"full_name,omitempty"`
	Phone              string                 `bson:"phone,omitempty"`
	Role               string                 `bson:"role"`
	CompanyProfile     *domain.CompanyProfile `bson:"company_profile,omitempty"`
	VerificationStatus string                 `bson:"verification_status"`
	Documents          mongoDocuments         `bson:",inline"`
	EmailVerifiedAt    int64                  `bson:"email_verified_at,omitempty"`
	CreatedAt          int64                  `bson:"created_at"`
	UpdatedAt          int64                  `bson:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := toMongoUser(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var mu mongoUser
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": patchToSet(patch, time.Now().UTC())}, opts).Decode(&mu)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// patchToSet builds the $set document for a patch. Company profile fields are
// set individually so fields the patch leaves nil are kept.
func patchToSet(p domain.UserPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now.Unix()}
	if p.FullName != nil {
		set["full_name"] = *p.FullName
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Role != nil {
		set["role"] = string(*p.Role)
	}
	if p.VerificationStatus != nil {
		set["verification_status"] = string(*p.VerificationStatus)
	}
	if p.EmailVerifiedAt != nil {
		set["email_verified_at"] = p.EmailVerifiedAt.Unix()
	}
	if cp := p.CompanyProfile; cp != nil {
		for field, v := range map[string]*string{
			"companyName":               cp.CompanyName,
			"industry":                  cp.Industry,
			"companyAddress":            cp.CompanyAddress,
			"companyWebsite":            cp.CompanyWebsite,
			"companyRegistrationNumber": cp.CompanyRegistrationNumber,
		} {
			if v != nil {
				set["company_profile."+field] = *v
			}
		}
	}
	for t, url := range p.Documents {
		if field := t.Field(); field != "" {
			set[field] = url
		}
	}
	return set
}

func toMongoUser(u *domain.User) mongoUser {
	mu := mongoUser{
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		FullName:           u.FullName,
		Phone:              u.Phone,
		Role:               string(u.Role),
		CompanyProfile:     u.CompanyProfile,
		VerificationStatus: string(u.VerificationStatus),
		Documents: mongoDocuments{
			BuktiKemitraan:    u.Documents[domain.DocBuktiKemitraan],
			DokumenLegal:      u.Documents[domain.DocDokumenLegal],
			SuratPernyataanIP: u.Documents[domain.DocSuratPernyataanIP],
			DokumenKYC:        u.Documents[domain.DocDokumenKYC],
			DokumenBilling:    u.Documents[domain.DocDokumenBilling],
			DokumenPajak:      u.Documents[domain.DocDokumenPajak],
		},
		CreatedAt: u.CreatedAt.Unix(),
		UpdatedAt: u.UpdatedAt.Unix(),
	}
	if u.EmailVerifiedAt != nil {
		mu.EmailVerifiedAt = u.EmailVerifiedAt.Unix()
	}
	return mu
}

func (mu mongoUser) toDomain() *domain.User {
	docs := make(domain.DocumentURLs)
	for t, url := range map[domain.DocumentType]string{
		domain.DocBuktiKemitraan:    mu.Documents.BuktiKemitraan,
		domain.DocDokumenLegal:      mu.Documents.DokumenLegal,
		domain.DocSuratPernyataanIP: mu.Documents.SuratPernyataanIP,
		domain.DocDokumenKYC:        mu.Documents.DokumenKYC,
		domain.DocDokumenBilling:    mu.Documents.DokumenBilling,
		domain.DocDokumenPajak:      mu.Documents.DokumenPajak,
	} {
		if url != "" {
			docs[t] = url
		}
	}
	if len(docs) == 0 {
		docs = nil
	}

	u := &domain.User{
		ID:                 mu.ID.Hex(),
		Email:              mu.Email,
		PasswordHash:       mu.PasswordHash,
		FullName:           mu.FullName,
		Phone:              mu.Phone,
		Role:               domain.Role(mu.Role),
		CompanyProfile:     mu.CompanyProfile,
		VerificationStatus: domain.VerificationStatus(mu.VerificationStatus),
		Documents:          docs,
		CreatedAt:          unixToTime(mu.CreatedAt),
		UpdatedAt:          unixToTime(mu.UpdatedAt),
	}
	if mu.EmailVerifiedAt != 0 {
		t := unixToTime(mu.EmailVerifiedAt)
		u.EmailVerifiedAt = &t
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
