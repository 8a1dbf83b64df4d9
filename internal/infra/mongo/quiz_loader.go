package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"classroom-game-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuizLoader reads quizzes from a document collection keyed by _id.
// A document carries the same fields as the JSON form of domain.Quiz.
type QuizLoader struct {
	collection *mongo.Collection
}

func NewQuizLoader(client *mongo.Client, database string) *QuizLoader {
	return &QuizLoader{collection: client.Database(database).Collection("quizzes")}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw bson.Raw
	err := l.collection.FindOne(ctx, bson.M{"_id": quizID}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	// relaxed extended JSON keeps numbers and strings plain
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("convert quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = quizID
	return quiz, nil
}

// SaveQuiz upserts quiz as a document with _id set to its id.
func (l *QuizLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	var doc bson.M
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return fmt.Errorf("convert quiz: %w", err)
	}
	delete(doc, "id")
	doc["_id"] = quiz.ID
	_, err = l.collection.ReplaceOne(ctx, bson.M{"_id": quiz.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

// Connect dials uri and verifies the deployment answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}
