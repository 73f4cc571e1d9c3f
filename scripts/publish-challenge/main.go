package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
)

type ChallengeUpsertedEvent struct {
	ChallengeID string `json:"challengeId"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Payload     string `json:"payload"`
	Timestamp   string `json:"timestamp"`
}

func main() {
	godotenv.Load("../../.env")

	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "localhost:9092"
	}

	category := "contest"
	if len(os.Args) > 1 {
		category = os.Args[1]
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  []string{brokers},
		Topic:    "challenge.upserted",
		Balancer: &kafka.LeastBytes{},
	})
	defer writer.Close()

	challengeID := uuid.New().String()
	doc := map[string]interface{}{
		"id":          challengeID,
		"title":       "Sum of Two Numbers",
		"description": "Read two integers and print their sum.",
		"gameType":    category,
		"language":    "python",
		"points":      100,
		"level":       1,
		"timeLimit":   300,
		"testCases": []map[string]interface{}{
			{"input": "1 2", "output": "3", "isHidden": false},
			{"input": "10 -4", "output": "6", "isHidden": true},
		},
	}
	payload, _ := json.Marshal(doc)

	event := ChallengeUpsertedEvent{
		ChallengeID: challengeID,
		Category:    category,
		Title:       "Sum of Two Numbers",
		Payload:     string(payload),
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	data, err := json.Marshal(event)
	if err != nil {
		fmt.Printf("Error marshaling event: %v\n", err)
		os.Exit(1)
	}

	err = writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.ChallengeID),
		Value: data,
	})

	if err != nil {
		fmt.Printf("Error writing to Kafka: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== challenge.upserted published ===")
	fmt.Printf("Challenge ID: %s\n", event.ChallengeID)
	fmt.Printf("Category: %s\n", event.Category)
}
