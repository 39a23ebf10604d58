package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SupabaseDatabase 通过 PostgREST (Supabase REST API) 访问数据库
type SupabaseDatabase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// APIError PostgREST 返回的错误响应
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, e.Body)
}

// Unwrap 将常见状态码映射为包内哨兵错误
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return nil
	}
}

// NewSupabaseDatabase 创建Supabase数据库实例
func NewSupabaseDatabase(baseURL, key string) *SupabaseDatabase {
	return NewSupabaseDatabaseWithClient(baseURL, key, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewSupabaseDatabaseWithClient 使用自定义 http.Client（测试中指向 httptest 服务器）
func NewSupabaseDatabaseWithClient(baseURL, key string, client *http.Client) *SupabaseDatabase {
	// 确保URL格式正确
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	return &SupabaseDatabase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     key,
		httpClient: client,
	}
}

// makeRequest 发送HTTP请求到Supabase
func (db *SupabaseDatabase) makeRequest(ctx context.Context, method, endpoint string, body interface{}, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, db.baseURL+"/rest/v1"+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", db.apiKey)
	req.Header.Set("Authorization", "Bearer "+db.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := db.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// Select 读取整张表（可带等值过滤和排序）
func (db *SupabaseDatabase) Select(ctx context.Context, table Table, q Query, dest interface{}) error {
	if err := checkTable(table); err != nil {
		return err
	}
	params, err := queryParams(q.Filters)
	if err != nil {
		return err
	}
	params.Set("select", "*")
	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if err := checkColumn(o.Column); err != nil {
				return err
			}
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			terms = append(terms, o.Column+"."+dir)
		}
		params.Set("order", strings.Join(terms, ","))
	}

	data, err := db.makeRequest(ctx, http.MethodGet, "/"+string(table)+"?"+params.Encode(), nil, nil)
	if err != nil {
		return fmt.Errorf("select %s: %w", table, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}

// Insert 插入一行并返回写入后的表示
func (db *SupabaseDatabase) Insert(ctx context.Context, table Table, values Values) (Values, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	data, err := db.makeRequest(ctx, http.MethodPost, "/"+string(table), values, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	var rows []Values
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode inserted %s row: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", table)
	}
	return rows[0], nil
}

// Update 按 id 更新一行
func (db *SupabaseDatabase) Update(ctx context.Context, table Table, id interface{}, patch Values) error {
	if err := checkTable(table); err != nil {
		return err
	}
	params, err := queryParams([]Filter{Eq("id", id)})
	if err != nil {
		return err
	}
	data, err := db.makeRequest(ctx, http.MethodPatch, "/"+string(table)+"?"+params.Encode(), patch, map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return fmt.Errorf("update %s %v: %w", table, id, err)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err == nil && len(rows) == 0 {
		return fmt.Errorf("update %s %v: %w", table, id, ErrNotFound)
	}
	return nil
}

// Delete 删除匹配的行
func (db *SupabaseDatabase) Delete(ctx context.Context, table Table, match ...Filter) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(match) == 0 {
		return ErrUnfilteredWrite
	}
	params, err := queryParams(match)
	if err != nil {
		return err
	}
	if _, err := db.makeRequest(ctx, http.MethodDelete, "/"+string(table)+"?"+params.Encode(), nil, nil); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// ReplaceRelations 通过存储过程在单个事务中重写关联表
func (db *SupabaseDatabase) ReplaceRelations(ctx context.Context, table Table, match Filter, rows []Values) error {
	if err := checkRelationTable(table); err != nil {
		return err
	}
	if err := checkColumn(match.Column); err != nil {
		return err
	}
	if rows == nil {
		rows = []Values{}
	}
	payload := map[string]interface{}{
		"p_table":        string(table),
		"p_match_column": match.Column,
		"p_match_value":  fmt.Sprint(match.Value),
		"p_rows":         rows,
	}
	if _, err := db.makeRequest(ctx, http.MethodPost, "/rpc/replace_relations", payload, nil); err != nil {
		return fmt.Errorf("replace %s for %s=%v: %w", table, match.Column, match.Value, err)
	}
	return nil
}

// AppendClassifiedOffer 调用 append_classified_offer 过程追加报价
func (db *SupabaseDatabase) AppendClassifiedOffer(ctx context.Context, classifiedID int64, text string) error {
	payload := map[string]interface{}{
		"p_classified_id": classifiedID,
		"p_offer":         text,
	}
	body, err := db.makeRequest(ctx, http.MethodPost, "/rpc/append_classified_offer", payload, nil)
	if err != nil {
		return fmt.Errorf("append offer to classified %d: %w", classifiedID, err)
	}

	// 函数返回更新的行数
	var updated int64
	if err := json.Unmarshal(body, &updated); err != nil {
		return fmt.Errorf("failed to decode append_classified_offer result: %w", err)
	}
	if updated == 0 {
		return fmt.Errorf("append offer to classified %d: %w", classifiedID, ErrNotFound)
	}
	return nil
}

// HealthCheck 健康检查
func (db *SupabaseDatabase) HealthCheck(ctx context.Context) error {
	_, err := db.makeRequest(ctx, http.MethodGet, "/"+string(TablePermissions)+"?select=slug&limit=1", nil, nil)
	return err
}

// Close HTTP 客户端无需关闭
func (db *SupabaseDatabase) Close() error {
	return nil
}

// queryParams 把等值过滤转换为 PostgREST 的 col=eq.value 形式
func queryParams(filters []Filter) (url.Values, error) {
	params := url.Values{}
	for _, f := range filters {
		if err := checkColumn(f.Column); err != nil {
			return nil, err
		}
		if f.Value == nil {
			params.Add(f.Column, "is.null")
			continue
		}
		params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	return params, nil
}
