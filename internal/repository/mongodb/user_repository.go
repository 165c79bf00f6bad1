package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

type UserRepository struct {
	users *mongo.Collection
	blogs *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repository.UserRepository {
	return &UserRepository{
		users: db.Collection(usersCollection),
		blogs: db.Collection(blogsCollection),
	}
}

func (r *UserRepository) Init(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.users.InsertOne(ctx, toUserDocument(user)); err != nil {
		if isDuplicateKey(err) {
			if strings.Contains(err.Error(), "username") {
				return domain.NewError(domain.ErrDuplicateAccount, "Username already Exist")
			}
			return domain.NewError(domain.ErrDuplicateAccount, "User already Exist with this Email")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) UpdateVerification(ctx context.Context, id string, verified bool, token *string) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"emailVerified":     verified,
		"verificationToken": token,
		"updatedAt":         time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update user verification: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	user := doc.toDomain()
	assigned, err := r.assignedBlogID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.AssignedBlogID = assigned
	return user, nil
}

// assignedBlogID returns the blog most recently assigned to the editor, if any.
func (r *UserRepository) assignedBlogID(ctx context.Context, userID string) (*string, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "editorAssignedAt", Value: -1}}).
		SetProjection(bson.M{"_id": 1})

	var ref struct {
		ID string `bson:"_id"`
	}
	err := r.blogs.FindOne(ctx, bson.M{"assignedEditorId": userID}, opts).Decode(&ref)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find assigned blog: %w", err)
	}
	return &ref.ID, nil
}
