// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

//go:build integration

package store_test

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth/postgres"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(migrator.Close()).To(Succeed()) })
		Expect(migrator.Down()).To(Succeed())
	})

	It("reports version zero with every migration pending on an empty schema", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(ContainElement(uint(1)))
	})

	It("applies, rolls back and reapplies", func() {
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "second Up is a no-op")

		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeNumerically(">=", 1))

		Expect(migrator.Down()).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
	})

	It("can be recorded at a version without running anything", func() {
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())

		Expect(migrator.Force(int(version))).To(Succeed())
		_, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(dirty).To(BeFalse())
	})
})

var _ = Describe("UserRepository on PostgreSQL", Ordered, func() {
	var (
		ctx   context.Context
		users *postgres.UserRepository
	)

	BeforeAll(func() {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())
	})

	BeforeEach(func() {
		ctx = context.Background()
		_, err := pool.Exec(ctx, "TRUNCATE users")
		Expect(err).NotTo(HaveOccurred())
		users = postgres.NewUserRepository(pool)
	})

	newUser := func(username string) *auth.User {
		return &auth.User{
			ID:           ulid.Make(),
			Username:     username,
			Fullname:     "Example User",
			PasswordHash: "digest",
			CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
		}
	}

	It("round trips a user", func() {
		user := newUser("exampleUser")
		Expect(users.Create(ctx, user)).To(Succeed())

		got, err := users.GetByUsername(ctx, "exampleUser")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(user.ID))
		Expect(got.Fullname).To(Equal("Example User"))
		Expect(got.PasswordHash).To(Equal("digest"))
		Expect(got.CreatedAt.Equal(user.CreatedAt)).To(BeTrue())
	})

	It("reports unknown usernames as not found", func() {
		_, err := users.GetByUsername(ctx, "ghost")
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("treats usernames case sensitively", func() {
		Expect(users.Create(ctx, newUser("exampleUser"))).To(Succeed())
		Expect(users.Create(ctx, newUser("EXAMPLEUSER"))).To(Succeed())
	})

	It("admits exactly one of many concurrent registrations", func() {
		const workers = 16
		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			created    int
			duplicates int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				err := users.Create(ctx, newUser("exampleUser"))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					created++
					return
				}
				Expect(err).To(MatchError(auth.ErrDuplicateUsername))
				duplicates++
			}()
		}
		wg.Wait()

		Expect(created).To(Equal(1))
		Expect(duplicates).To(Equal(workers - 1))
	})
})
