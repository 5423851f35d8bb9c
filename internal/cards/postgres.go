package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresRepository reads card definitions from the cards table. The
// structured effect fields are stored as JSON columns so the database
// carries the same tagged vocabulary the engine interprets.
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresRepository connects a repository to an existing pool.
func NewPostgresRepository(pool *pgxpool.Pool, logger *zap.Logger) *PostgresRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRepository{pool: pool, logger: logger}
}

// Connect opens a pgx pool against the given URL and verifies it.
func Connect(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

const selectColumns = `name, set_code, mana_cost, types, supertypes, colors,
	power, toughness, loyalty, keywords, rules_text,
	spell_effects, activated_abilities, triggered_abilities`

// Get fetches one card by name, case-insensitively.
func (r *PostgresRepository) Get(ctx context.Context, name string) (Definition, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM cards WHERE lower(name) = lower($1) LIMIT 1`,
		strings.TrimSpace(name),
	)
	def, err := scanDefinition(row)
	if err == pgx.ErrNoRows {
		return Definition{}, errNotFound(name)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("query card %q: %w", name, err)
	}
	return def, nil
}

// List returns every stored card.
func (r *PostgresRepository) List(ctx context.Context) ([]Definition, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM cards ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var defs []Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (Definition, error) {
	var (
		def                          Definition
		spellJSON, actJSON, trigJSON []byte
	)
	err := row.Scan(
		&def.Name, &def.SetCode, &def.ManaCost,
		&def.Types, &def.Supertypes, &def.Colors,
		&def.Power, &def.Toughness, &def.Loyalty,
		&def.Keywords, &def.RulesText,
		&spellJSON, &actJSON, &trigJSON,
	)
	if err != nil {
		return Definition{}, err
	}
	if len(spellJSON) > 0 {
		if err := json.Unmarshal(spellJSON, &def.Spell); err != nil {
			return Definition{}, fmt.Errorf("card %s: bad spell effects: %w", def.Name, err)
		}
	}
	if len(actJSON) > 0 {
		if err := json.Unmarshal(actJSON, &def.Activated); err != nil {
			return Definition{}, fmt.Errorf("card %s: bad activated abilities: %w", def.Name, err)
		}
	}
	if len(trigJSON) > 0 {
		if err := json.Unmarshal(trigJSON, &def.Triggers); err != nil {
			return Definition{}, fmt.Errorf("card %s: bad triggered abilities: %w", def.Name, err)
		}
	}
	return def, nil
}
