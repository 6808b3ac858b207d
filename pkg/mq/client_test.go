package mq_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/fleet-inventory/pkg/mq"
)

var _ = Describe("MQ Client", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	Describe("New", func() {
		It("should create a new client instance", func() {
			client := mq.New("test-queue", "amqp://localhost:5672", logger)
			Expect(client).NotTo(BeNil())
		})
	})

	Describe("Push", func() {
		Context("when not connected", func() {
			It("should fail fast instead of blocking", func() {
				client := mq.New("test-queue", "amqp://invalid:5672", logger)

				// Give the connect goroutine a moment to fail
				time.Sleep(100 * time.Millisecond)

				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				err := client.Push(ctx, []byte("test message"))
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not connected"))
			})
		})
	})

	Describe("Close", func() {
		Context("when never connected", func() {
			It("should report already closed", func() {
				client := mq.New("test-queue", "amqp://invalid:5672", logger)

				err := client.Close()
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("not connected"))
			})

			It("should stop the reconnect loop", func() {
				client := mq.New("test-queue", "amqp://invalid:5672", logger)

				Expect(client.Close()).To(HaveOccurred())

				// The reconnect loop observes done and exits, so a later
				// push must keep failing fast rather than waiting on a
				// connection that will never come.
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				err := client.Push(ctx, []byte("test message"))
				Expect(err).To(HaveOccurred())
			})

			It("should survive a second Close without panicking", func() {
				client := mq.New("test-queue", "amqp://invalid:5672", logger)

				Expect(client.Close()).To(HaveOccurred())
				Expect(func() {
					Expect(client.Close()).To(HaveOccurred())
				}).NotTo(Panic())
			})
		})
	})
})
