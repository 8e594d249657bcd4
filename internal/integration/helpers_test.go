//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/storm-attribution-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("storm-attribution-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// loadMockData reads the track report fixture.
func loadMockData(t *testing.T) []domain.TrackReport {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "tracks.json"))
	require.NoError(t, err)

	var reports []domain.TrackReport
	require.NoError(t, json.Unmarshal(data, &reports))
	require.NotEmpty(t, reports)
	return reports
}

func publishReports(ctx context.Context, t *testing.T, broker, topic string, reports []domain.TrackReport) {
	t.Helper()

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: topic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(reports))
	for _, rep := range reports {
		payload, err := json.Marshal(rep)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(rep.StormID),
			Value: payload,
			Time:  time.Now(),
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}
