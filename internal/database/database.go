// Package database owns the gorm connection, schema migration and the
// one-time catalog seed.
package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dkovalev/novelshelf/internal/entities"
)

func intPtr(n int) *int { return &n }

// sampleNovels is inserted once, on first run against an empty catalog.
var sampleNovels = []entities.Novel{
	{
		Title:         "Solo Leveling",
		Author:        "Chugong",
		Synopsis:      "In a world where hunters must battle deadly monsters, the weakest hunter Sung Jinwoo gains incredible powers through a mysterious system.",
		Status:        entities.NovelStatusCompleted,
		TotalChapters: intPtr(200),
		Tags:          "Action, Adventure, Fantasy, System",
	},
	{
		Title:         "The Beginning After The End",
		Author:        "TurtleMe",
		Synopsis:      "King Grey has unrivaled strength, wealth, and prestige in a world governed by martial ability. However, solitude lingers closely behind those with great power.",
		Status:        entities.NovelStatusOngoing,
		TotalChapters: intPtr(175),
		Tags:          "Fantasy, Reincarnation, Adventure, Romance",
	},
	{
		Title:         "Omniscient Reader's Viewpoint",
		Author:        "Sing-Shong",
		Synopsis:      "Only I know the end of this world. One day, our world finds itself merged with the novel I was reading.",
		Status:        entities.NovelStatusCompleted,
		TotalChapters: intPtr(551),
		Tags:          "Action, Fantasy, System, Apocalypse",
	},
	{
		Title:         "Trash of the Count's Family",
		Author:        "Yoo Ryeo Han",
		Synopsis:      "When I opened my eyes, I was inside a novel. I became a part of that novel as the trash of a Count.",
		Status:        entities.NovelStatusOngoing,
		TotalChapters: intPtr(800),
		Tags:          "Fantasy, Adventure, System, Reincarnation",
	},
	{
		Title:         "Martial Peak",
		Author:        "Momo",
		Synopsis:      "The journey to the martial peak is a lonely, solitary and long one. In the face of adversity, you must survive and remain unyielding.",
		Status:        entities.NovelStatusCompleted,
		TotalChapters: intPtr(6000),
		Tags:          "Martial Arts, Adventure, Harem, Fantasy",
	},
}

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Info))
}

// NewSilentDatabase opens a database without query logging. Used in tests.
func NewSilentDatabase(dbPath string) (*Database, error) {
	return newDatabase(dbPath, logger.Default.LogMode(logger.Silent))
}

func newDatabase(dbPath string, gormLogger logger.Interface) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only enforces FK cascades with this pragma on.
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Novel{},
		&entities.ReadingListEntry{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.SeedCatalog(); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the underlying connection. Used by the health endpoint.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// SeedCatalog inserts the sample novels when the catalog is empty.
// It is a no-op on any subsequent run.
func (d *Database) SeedCatalog() error {
	var count int64
	if err := d.DB.Model(&entities.Novel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i := range sampleNovels {
		novel := sampleNovels[i]
		if err := d.DB.Create(&novel).Error; err != nil {
			return fmt.Errorf("failed to create novel %q: %w", novel.Title, err)
		}
	}
	log.Printf("Seeded catalog with %d sample novels", len(sampleNovels))
	return nil
}
