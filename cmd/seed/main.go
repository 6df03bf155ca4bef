package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"eventix/internal/events"
	"eventix/internal/shared/config"
	"eventix/internal/shared/database"
	"eventix/internal/users"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Seeder struct {
	db  *database.DB
	now time.Time
}

func main() {
	fmt.Println("🌱 Starting Eventix Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, now: time.Now()}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates every table, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{"bookings", "events", "users"}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	userIDs, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedEvents(userIDs["admin"]); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	// cached event pages would otherwise outlive the rows they describe
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedUsers creates one admin and two regular users, all with password "qwerty"
func (s *Seeder) SeedUsers() (map[string]uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	userIDs := make(map[string]uuid.UUID)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"admin", "Admin", "User", "admin@eventix.dev", users.RoleAdmin},
		{"user1", "Priya", "Nair", "priya@eventix.dev", users.RoleUser},
		{"user2", "Tomas", "Berg", "tomas@eventix.dev", users.RoleUser},
	}

	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			IsActive:  true,
			CreatedAt: s.now,
			UpdatedAt: s.now,
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return userIDs, nil
}

// SeedEvents creates a spread of bookable, draft and already finished events
func (s *Seeder) SeedEvents(organizerID uuid.UUID) error {
	fmt.Println("  🎫 Seeding events...")

	day := 24 * time.Hour
	eventsData := []struct {
		title    string
		category events.Category
		in       time.Duration
		price    float64
		tickets  int
		status   events.EventStatus
		venue    events.Venue
	}{
		{
			"Go Systems Conference", events.CategoryConference, 30 * day, 149.00, 300, events.EventStatusPublished,
			events.Venue{Name: "Harbour Convention Centre", Address: "1 Quay Street", City: "Auckland", State: "Auckland", ZipCode: "1010", Capacity: 300},
		},
		{
			"Distributed Tracing Workshop", events.CategoryWorkshop, 10 * day, 49.50, 40, events.EventStatusPublished,
			events.Venue{Name: "Makers Loft", Address: "22 Mill Road", City: "Portland", State: "OR", ZipCode: "97205", Capacity: 40},
		},
		{
			"Late Summer Jazz Night", events.CategoryConcert, 2 * day, 35.00, 5, events.EventStatusPublished,
			events.Venue{Name: "The Blue Room", Address: "8 Canal Street", City: "Manchester", State: "Greater Manchester", ZipCode: "M1 3HE", Capacity: 120},
		},
		{
			"Community Meetup", events.CategoryNetworking, 12 * time.Hour, 0, 60, events.EventStatusPublished,
			events.Venue{Name: "Civic Library", Address: "100 Main Street", City: "Austin", State: "TX", ZipCode: "78701", Capacity: 60},
		},
		{
			"Platform Engineering Summit", events.CategorySeminar, 60 * day, 99.00, 200, events.EventStatusDraft,
			events.Venue{Name: "Riverside Hall", Address: "5 Bank Lane", City: "Berlin", State: "Berlin", ZipCode: "10115", Capacity: 250},
		},
		{
			"Spring Hackathon", events.CategoryOther, -3 * day, 10.00, 80, events.EventStatusPublished,
			events.Venue{Name: "Innovation Hub", Address: "77 Market Street", City: "San Francisco", State: "CA", ZipCode: "94103", Capacity: 80},
		},
	}

	for _, data := range eventsData {
		event := events.Event{
			ID:               uuid.New(),
			Title:            data.title,
			Description:      fmt.Sprintf("%s, seeded for local testing.", data.title),
			Category:         data.category,
			Date:             s.now.Add(data.in).Truncate(time.Minute),
			StartTime:        "18:00",
			EndTime:          "21:00",
			Venue:            data.venue,
			Price:            data.price,
			TotalTickets:     data.tickets,
			AvailableTickets: data.tickets,
			Status:           data.status,
			OrganizerID:      organizerID,
		}

		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create event %s: %w", data.title, err)
		}

		fmt.Printf("    ✅ Created event: %s (%s, %d tickets)\n", event.Title, event.Status, event.TotalTickets)
	}

	return nil
}
