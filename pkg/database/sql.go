package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// 支持的 database/sql 驱动
const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
	DriverSQLite   = "sqlite"
)

const uniqueViolation = "23505"

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// SQLDatabase 直连数据库实现（PostgreSQL 或 SQLite）
type SQLDatabase struct {
	db     *sqlx.DB
	driver string
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(driverName, dsn string) (*SQLDatabase, error) {
	if driverName == "" {
		driverName = DriverPostgres
	}
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)

	// 尝试多种连接策略来解决Vercel Lambda的IPv6问题
	var strategies []string
	if driverName == DriverPGX {
		strategies = []string{
			addConnectionParams(dsn, "default_query_exec_mode=simple_protocol"),
			addConnectionParams(dsn, "default_query_exec_mode=simple_protocol&connect_timeout=10"),
			dsn,
		}
	} else {
		strategies = []string{
			addConnectionParams(dsn, "connect_timeout=10"),
			addConnectionParams(dsn, "sslmode=require&connect_timeout=10"),
			dsn, // 最后尝试原始DSN
		}
	}

	var lastErr error
	for i, strategy := range strategies {
		fmt.Printf("🔄 Trying connection strategy %d...\n", i+1)

		db, err := sqlx.Open(driverName, strategy)
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to open: %v\n", i+1, err)
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			fmt.Printf("❌ Strategy %d failed to ping: %v\n", i+1, err)
			db.Close()
			lastErr = err
			continue
		}

		fmt.Printf("✅ PostgreSQL connection established successfully with strategy %d\n", i+1)
		return &SQLDatabase{db: db.Unsafe(), driver: driverName}, nil
	}

	return nil, fmt.Errorf("failed to connect to PostgreSQL with all strategies: %w", lastErr)
}

// NewSQLDatabase 打开任意受支持驱动的数据库；SQLite 路径为空时使用内存库
func NewSQLDatabase(driverName, dsn string) (*SQLDatabase, error) {
	if driverName != DriverSQLite {
		return NewPostgresDatabase(driverName, dsn)
	}
	if dsn == "" {
		dsn = ":memory:"
	}
	dsn = addConnectionParams(dsn, "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	db, err := sqlx.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// 内存库按连接隔离，只保留一个连接
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &SQLDatabase{db: db.Unsafe(), driver: DriverSQLite}, nil
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" {
		return dsn
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

// DB 暴露底层连接（迁移脚本使用）
func (s *SQLDatabase) DB() *sqlx.DB { return s.db }

// Driver 返回驱动名
func (s *SQLDatabase) Driver() string { return s.driver }

// Select 读取整张表（可带等值过滤和排序）
func (s *SQLDatabase) Select(ctx context.Context, table Table, q Query, dest interface{}) error {
	if err := checkTable(table); err != nil {
		return err
	}
	where, args, err := whereClause(q.Filters)
	if err != nil {
		return err
	}
	query := "SELECT * FROM " + string(table) + where
	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if err := checkColumn(o.Column); err != nil {
				return err
			}
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			terms = append(terms, o.Column+" "+dir)
		}
		query += " ORDER BY " + strings.Join(terms, ", ")
	}

	if err := s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("select %s: %w", table, translateError(err))
	}
	return nil
}

// Insert 插入一行并返回写入后的表示
func (s *SQLDatabase) Insert(ctx context.Context, table Table, values Values) (Values, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	row, err := insertReturning(ctx, s.db, table, values)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return row, nil
}

// Update 按 id 更新一行
func (s *SQLDatabase) Update(ctx context.Context, table Table, id interface{}, patch Values) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	columns := sortedColumns(patch)
	sets := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		if err := checkColumn(col); err != nil {
			return err
		}
		v, err := sqlValue(patch[col])
		if err != nil {
			return fmt.Errorf("update %s column %s: %w", table, col, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	args = append(args, id)

	query := "UPDATE " + string(table) + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update %s %v: %w", table, id, translateError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update %s %v: %w", table, id, ErrNotFound)
	}
	return nil
}

// Delete 删除匹配的行
func (s *SQLDatabase) Delete(ctx context.Context, table Table, match ...Filter) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(match) == 0 {
		return ErrUnfilteredWrite
	}
	where, args, err := whereClause(match)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM "+string(table)+where), args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, translateError(err))
	}
	return nil
}

// ReplaceRelations 在单个事务中删除旧关联并写入新关联，失败时回滚
func (s *SQLDatabase) ReplaceRelations(ctx context.Context, table Table, match Filter, rows []Values) (err error) {
	if err := checkRelationTable(table); err != nil {
		return err
	}
	where, args, err := whereClause([]Filter{match})
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s rewrite: %w", table, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				fmt.Printf("⚠️  Rollback of %s rewrite failed: %v\n", table, rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+string(table)+where), args...); err != nil {
		return fmt.Errorf("clear %s: %w", table, translateError(err))
	}
	for _, row := range rows {
		if _, err = insertReturning(ctx, tx, table, row); err != nil {
			return fmt.Errorf("rewrite %s: %w", table, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s rewrite: %w", table, err)
	}
	return nil
}

// AppendClassifiedOffer 在数据库端拼接报价文本
func (s *SQLDatabase) AppendClassifiedOffer(ctx context.Context, classifiedID int64, text string) error {
	query := "UPDATE classifieds SET offers = COALESCE(offers, '') || ? WHERE id = ?"
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), text, classifiedID)
	if err != nil {
		return fmt.Errorf("append offer to classified %d: %w", classifiedID, translateError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("append offer to classified %d: %w", classifiedID, ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查
func (s *SQLDatabase) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close 关闭连接
func (s *SQLDatabase) Close() error {
	return s.db.Close()
}

type queryer interface {
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
	Rebind(query string) string
}

func insertReturning(ctx context.Context, q queryer, table Table, values Values) (Values, error) {
	columns := sortedColumns(values)
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		if err := checkColumn(col); err != nil {
			return nil, err
		}
		v, err := sqlValue(values[col])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		placeholders[i] = "?"
		args[i] = v
	}

	var query string
	if len(columns) == 0 {
		query = "INSERT INTO " + string(table) + " DEFAULT VALUES RETURNING *"
	} else {
		query = "INSERT INTO " + string(table) + " (" + strings.Join(columns, ", ") +
			") VALUES (" + strings.Join(placeholders, ", ") + ") RETURNING *"
	}

	rows, err := q.QueryxContext(ctx, q.Rebind(query), args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, translateError(err)
		}
		return nil, errors.New("insert returned no rows")
	}
	row := map[string]interface{}{}
	if err := rows.MapScan(row); err != nil {
		return nil, err
	}
	out := make(Values, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func whereClause(filters []Filter) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		if err := checkColumn(f.Column); err != nil {
			return "", nil, err
		}
		if f.Value == nil {
			conds = append(conds, f.Column+" IS NULL")
			continue
		}
		v, err := sqlValue(f.Value)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, f.Column+" = ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func sortedColumns(values Values) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// sqlValue 把 Go 值转换为驱动可接受的参数；列表、对象写为 JSON 文本
func sqlValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, nil
		}
		return valuer.Value()
	}
	switch x := v.(type) {
	case []byte, time.Time, string, bool, int, int32, int64, float32, float64:
		return x, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		return sqlValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return v, nil
}

// translateError 把驱动的唯一约束冲突映射为 ErrConflict
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
