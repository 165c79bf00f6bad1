package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blog-api/internal/domain"
	"blog-api/internal/repository"
)

type BlogRepository struct {
	blogs *mongo.Collection
}

func NewBlogRepository(db *mongo.Database) repository.BlogRepository {
	return &BlogRepository{blogs: db.Collection(blogsCollection)}
}

func (r *BlogRepository) Init(ctx context.Context) error {
	_, err := r.blogs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedEditorId", Value: 1}, {Key: "editorAssignedAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create blog indexes: %w", err)
	}
	return nil
}

func (r *BlogRepository) Create(ctx context.Context, blog *domain.Blog) error {
	now := time.Now().UTC()
	blog.CreatedAt = now
	blog.UpdatedAt = now

	if _, err := r.blogs.InsertOne(ctx, toBlogDocument(blog)); err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

func (r *BlogRepository) Get(ctx context.Context, id string) (*domain.Blog, error) {
	var doc blogDocument
	if err := r.blogs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("blog not found")
		}
		return nil, fmt.Errorf("find blog: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BlogRepository) List(ctx context.Context) ([]domain.Blog, error) {
	cur, err := r.blogs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find blogs: %w", err)
	}
	defer cur.Close(ctx)

	blogs := []domain.Blog{}
	for cur.Next(ctx) {
		var doc blogDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode blog: %w", err)
		}
		blogs = append(blogs, *doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}
	return blogs, nil
}

func (r *BlogRepository) UpdateContent(ctx context.Context, id, title, content string) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":     title,
		"content":   content,
		"updatedAt": time.Now().UTC(),
	}}, "blog")
}

func (r *BlogRepository) AssignEditor(ctx context.Context, id, editorID string, assignedAt time.Time) error {
	return r.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"assignedEditorId": editorID,
		"editorAssignedAt": assignedAt.UTC(),
		"updatedAt":        time.Now().UTC(),
	}}, "blog")
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	res, err := r.blogs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("blog not found")
	}
	return nil
}

func (r *BlogRepository) AddComment(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	return r.updateOne(ctx, bson.M{"_id": comment.BlogID}, bson.M{
		"$push": bson.M{"comments": toCommentDocument(comment)},
		"$set":  bson.M{"updatedAt": now},
	}, "blog")
}

func (r *BlogRepository) DeleteComment(ctx context.Context, blogID, commentID string) error {
	return r.updateOne(ctx, bson.M{"_id": blogID, "comments._id": commentID}, bson.M{
		"$pull": bson.M{"comments": bson.M{"_id": commentID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}, "comment")
}

func (r *BlogRepository) updateOne(ctx context.Context, filter, update bson.M, what string) error {
	res, err := r.blogs.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(what + " not found")
	}
	return nil
}
