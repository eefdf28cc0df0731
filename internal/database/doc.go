// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, SQLite length triggers
//	├── entitystore/     # Atomic parent + children writes and reads, SQL dialects
//	├── announcements/   # Announcement CRUD, listing, expiry
//	├── companies/       # Company accounts and their domains
//	├── influencers/     # Influencer accounts and their subjects
//	└── applications/    # Influencer applications to announcements
//
// # Using Sub-packages
//
// Each sub-package provides a Repository built on the shared connection:
//
//	db, err := database.Open(cfg.Database)
//
//	announcementsRepo, err := announcements.NewRepository(db)
//	id, err := announcementsRepo.Create(ctx, &announcement)
//	a, found, err := announcementsRepo.GetOne(ctx, id)
//
// Parent records with dependent string values (announcement subjects,
// company domains, influencer subjects) are always written through an
// entitystore.Store so the parent row and its child rows commit together or
// not at all. Everything else (lists, deletes, status changes) goes through
// gorm.
//
// # Drivers
//
// DATABASE_DRIVER selects sqlite (default), postgres or sqlserver. The schema
// is created with gorm AutoMigrate on every start.
package database
