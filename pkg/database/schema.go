package database

import (
	"context"
	"fmt"
	"strings"
)

// dialect 描述两种 SQL 方言之间的差异
type dialect struct {
	serial    string
	uuid      string
	uuidRef   string
	json      string
	boolean   string
	date      string
	timestamp string
	now       string
}

var (
	postgresDialect = dialect{
		serial:    "BIGSERIAL PRIMARY KEY",
		uuid:      "UUID PRIMARY KEY DEFAULT gen_random_uuid()",
		uuidRef:   "UUID",
		json:      "JSONB NOT NULL DEFAULT '[]'::jsonb",
		boolean:   "BOOLEAN NOT NULL DEFAULT FALSE",
		date:      "DATE",
		timestamp: "TIMESTAMPTZ",
		now:       "NOW()",
	}
	sqliteDialect = dialect{
		serial:    "INTEGER PRIMARY KEY AUTOINCREMENT",
		uuid:      "TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16))))",
		uuidRef:   "TEXT",
		json:      "TEXT NOT NULL DEFAULT '[]'",
		boolean:   "INTEGER NOT NULL DEFAULT 0",
		date:      "TEXT",
		timestamp: "TEXT",
		now:       "CURRENT_TIMESTAMP",
	}
)

const textColumn = "TEXT NOT NULL DEFAULT ''"

// schemaStatements 返回建表语句，顺序满足外键依赖
func schemaStatements(d dialect) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS permissions (
			slug TEXT PRIMARY KEY,
			name ` + textColumn + `,
			description ` + textColumn + `
		)`,
		`CREATE TABLE IF NOT EXISTS chapters (
			id ` + d.serial + `,
			name ` + textColumn + `,
			acronym ` + textColumn + `,
			description ` + textColumn + `,
			color ` + textColumn + `,
			icon_name ` + textColumn + `,
			cover_image ` + textColumn + `,
			calendar_url ` + textColumn + `,
			contact_email ` + textColumn + `,
			keywords ` + d.json + `,
			content_links ` + d.json + `
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id ` + d.uuid + `,
			full_name ` + textColumn + `,
			name ` + textColumn + `,
			email ` + textColumn + `,
			role ` + textColumn + `,
			avatar_initials ` + textColumn + `,
			photo_url ` + textColumn + `,
			bio ` + textColumn + `,
			birth_date ` + d.date + `,
			skills ` + d.json + `,
			social_links ` + d.json + `,
			membership_number ` + textColumn + `,
			phone ` + textColumn + `,
			course ` + textColumn + `
		)`,
		`CREATE TABLE IF NOT EXISTS profile_chapters (
			id ` + d.serial + `,
			profile_id ` + d.uuidRef + ` NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE,
			permission_slug TEXT NOT NULL DEFAULT 'member'
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id ` + d.serial + `,
			public_id ` + textColumn + `,
			name ` + textColumn + `,
			description ` + textColumn + `,
			status TEXT NOT NULL DEFAULT 'Planejamento',
			progress INTEGER NOT NULL DEFAULT 0,
			start_date ` + d.date + `,
			end_date ` + d.date + `,
			is_partnership ` + d.boolean + `,
			tags ` + d.json + `,
			checkpoints ` + d.json + `,
			notes ` + textColumn + `,
			links ` + d.json + `,
			theme ` + textColumn + `,
			cover_image ` + textColumn + `
		)`,
		`CREATE TABLE IF NOT EXISTS project_members (
			id ` + d.serial + `,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			profile_id ` + d.uuidRef + ` NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			is_owner ` + d.boolean + `
		)`,
		`CREATE TABLE IF NOT EXISTS project_chapters (
			id ` + d.serial + `,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			chapter_id BIGINT NOT NULL REFERENCES chapters(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id ` + d.serial + `,
			public_id ` + textColumn + `,
			title ` + textColumn + `,
			description ` + textColumn + `,
			status TEXT NOT NULL DEFAULT 'todo',
			priority TEXT NOT NULL DEFAULT 'média',
			start_date ` + d.date + `,
			deadline ` + d.date + `,
			tags ` + d.json + `,
			content_url TEXT,
			project_id BIGINT REFERENCES projects(id) ON DELETE SET NULL,
			assignee_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS task_assignees (
			id ` + d.serial + `,
			task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			profile_id ` + d.uuidRef + ` NOT NULL REFERENCES profiles(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + d.serial + `,
			title ` + textColumn + `,
			start_at ` + d.timestamp + `,
			end_at ` + d.timestamp + `,
			location ` + textColumn + `,
			description ` + textColumn + `,
			category ` + textColumn + `,
			sub_category ` + textColumn + `,
			event_type TEXT NOT NULL DEFAULT 'Virtual',
			hosts ` + d.json + `,
			is_public ` + d.boolean + `,
			reported_vtools ` + d.boolean + `,
			report_url ` + textColumn + `,
			member_attendees INTEGER NOT NULL DEFAULT 0,
			guest_attendees INTEGER NOT NULL DEFAULT 0,
			attendees ` + d.json + `,
			chapter_id BIGINT,
			project_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS classifieds (
			id ` + d.serial + `,
			type TEXT NOT NULL DEFAULT 'help',
			title ` + textColumn + `,
			description ` + textColumn + `,
			image_url ` + textColumn + `,
			created_at ` + d.timestamp + ` DEFAULT ` + d.now + `,
			task_id BIGINT,
			chapter_ids ` + d.json + `,
			chapter_id BIGINT,
			responsible_id TEXT,
			offers ` + textColumn + `
		)`,
		`CREATE TABLE IF NOT EXISTS chapter_goals (
			id ` + d.serial + `,
			chapter_id BIGINT,
			title ` + textColumn + `,
			description ` + textColumn + `,
			indicator ` + textColumn + `,
			current_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			target_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			color ` + textColumn + `,
			period TEXT NOT NULL DEFAULT 'Anual'
		)`,
		`CREATE TABLE IF NOT EXISTS tools (
			id ` + d.serial + `,
			name ` + textColumn + `,
			description ` + textColumn + `,
			url ` + textColumn + `,
			icon_name ` + textColumn + `,
			category ` + textColumn + `
		)`,
		`CREATE TABLE IF NOT EXISTS finances (
			id ` + d.serial + `,
			type TEXT NOT NULL DEFAULT 'entry',
			amount DOUBLE PRECISION NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'BRL',
			description ` + textColumn + `,
			date ` + d.date + `,
			invoice_url ` + textColumn + `,
			notes ` + textColumn + `,
			chapter_id BIGINT,
			project_id BIGINT,
			reimbursement_status TEXT NOT NULL DEFAULT 'not_required',
			created_by TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profile_chapters_profile ON profile_chapters(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_project_members_project ON project_members(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_project_chapters_project ON project_chapters(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_task_assignees_task ON task_assignees(task_id)`,
		`INSERT INTO permissions (slug, name, description) VALUES
			('admin', 'Administrador', 'Gerencia o capítulo e todos os seus projetos'),
			('chair', 'Coordenador', 'Coordena os projetos do capítulo'),
			('member', 'Membro', 'Participa dos projetos')
		ON CONFLICT (slug) DO NOTHING`,
	}
}

// postgresFunctions 与 SupabaseDatabase 调用的 RPC 对应
var postgresFunctions = []string{
	// 旧版本返回 void，返回类型不同无法直接 REPLACE
	`DROP FUNCTION IF EXISTS append_classified_offer(BIGINT, TEXT)`,
	`CREATE FUNCTION append_classified_offer(p_classified_id BIGINT, p_offer TEXT)
	RETURNS integer LANGUAGE plpgsql AS $$
	DECLARE
		updated integer;
	BEGIN
		UPDATE classifieds SET offers = COALESCE(offers, '') || p_offer WHERE id = p_classified_id;
		GET DIAGNOSTICS updated = ROW_COUNT;
		RETURN updated;
	END;
	$$`,
	`CREATE OR REPLACE FUNCTION replace_relations(p_table TEXT, p_match_column TEXT, p_match_value TEXT, p_rows JSONB)
	RETURNS void LANGUAGE plpgsql AS $$
	DECLARE
		cols TEXT;
	BEGIN
		IF p_table NOT IN ('profile_chapters', 'project_members', 'project_chapters', 'task_assignees') THEN
			RAISE EXCEPTION 'table % is not a relation table', p_table;
		END IF;
		EXECUTE format('DELETE FROM %I WHERE %I::text = $1', p_table, p_match_column) USING p_match_value;
		IF p_rows IS NULL OR jsonb_array_length(p_rows) = 0 THEN
			RETURN;
		END IF;
		SELECT string_agg(quote_ident(k), ', ') INTO cols FROM jsonb_object_keys(p_rows->0) AS k;
		EXECUTE format('INSERT INTO %I (%s) SELECT %s FROM jsonb_populate_recordset(NULL::%I, $1)',
			p_table, cols, cols, p_table) USING p_rows;
	END;
	$$`,
}

// Migrate 创建（或补齐）全部表、索引、权限目录和 RPC 函数
func Migrate(ctx context.Context, db *SQLDatabase) error {
	statements := schemaStatements(postgresDialect)
	if db.driver == DriverSQLite {
		statements = schemaStatements(sqliteDialect)
	} else {
		statements = append(statements, postgresFunctions...)
	}

	for i, stmt := range statements {
		if _, err := db.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d (%s): %w", i+1, firstLine(stmt), err)
		}
	}
	fmt.Printf("✅ Database schema is up to date (%d statements)\n", len(statements))
	return nil
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
