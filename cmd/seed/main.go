// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev caregiver (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"cribtrack/backend/internal/config"
	"cribtrack/backend/internal/db"
	identitydomain "cribtrack/backend/internal/identity/domain"
	identityrepo "cribtrack/backend/internal/identity/repository"
	"cribtrack/backend/internal/security"
	sessiondomain "cribtrack/backend/internal/session/domain"
	sessionrepo "cribtrack/backend/internal/session/repository"
)

const (
	devEmail    = "dev@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	caregivers := identityrepo.NewPostgresRepository(conn)

	existing, err := caregivers.GetByEmail(ctx, devEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	caregiver := &identitydomain.Caregiver{
		ID:           uuid.New().String(),
		Email:        devEmail,
		DisplayName:  "Dev Caregiver",
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := caregivers.Create(ctx, caregiver); err != nil {
		log.Fatalf("create dev caregiver: %v", err)
	}

	sessions := sessionrepo.NewPostgresRepository(conn)
	yesterday := now.AddDate(0, 0, -1)
	amount := 120

	samples := []struct {
		domain   sessiondomain.TrackedDomain
		kind     sessiondomain.Kind
		start    time.Time
		minutes  int
		side     string
		amountML *int
		foodType string
	}{
		{sessiondomain.DomainSleep, sessiondomain.KindNight, yesterday.Add(-10 * time.Hour), 540, "", nil, ""},
		{sessiondomain.DomainSleep, sessiondomain.KindNap, yesterday.Add(3 * time.Hour), 80, "", nil, ""},
		{sessiondomain.DomainSleep, sessiondomain.KindNap, yesterday.Add(7 * time.Hour), 45, "", nil, ""},
		{sessiondomain.DomainFeeding, sessiondomain.KindBreast, yesterday.Add(2 * time.Hour), 25, "left", nil, ""},
		{sessiondomain.DomainFeeding, sessiondomain.KindBottle, yesterday.Add(6 * time.Hour), 15, "", &amount, ""},
		{sessiondomain.DomainFeeding, sessiondomain.KindSolid, yesterday.Add(9 * time.Hour), 20, "", nil, "oatmeal"},
	}
	for _, sample := range samples {
		s := &sessiondomain.Session{
			ID:        uuid.New().String(),
			OwnerID:   caregiver.ID,
			Domain:    sample.domain,
			Kind:      sample.kind,
			StartTime: sample.start,
			Side:      sample.side,
			AmountML:  sample.amountML,
			FoodType:  sample.foodType,
			CreatedAt: sample.start,
		}
		if err := sessions.Create(ctx, s); err != nil {
			log.Fatalf("create %s session: %v", sample.domain, err)
		}
		end := sample.start.Add(time.Duration(sample.minutes) * time.Minute)
		if _, err := sessions.Close(ctx, s.ID, end, sample.minutes); err != nil {
			log.Fatalf("close %s session: %v", sample.domain, err)
		}
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devEmail, devPassword)
}
