package apiserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/minishop/minishop/internal/datastore"
)

func newTestHandler(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	store := datastore.New(sqlx.NewDb(db, "sqlite3"), log)
	return NewHandler(store, log), mock
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "price", "description", "stock"})
}

type productsResponse struct {
	Products [][]any `json:"products"`
}

func TestSelectAllReturnsProducts(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery("SELECT * FROM products").WillReturnRows(
		productRows().
			AddRow(int64(1), "ノートパソコン", int64(89800), "Core i5搭載の高性能ノートPC", int64(10)).
			AddRow(int64(2), "ワイヤレスマウス", int64(2980), "Bluetooth対応ワイヤレスマウス", int64(50)),
	)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/select_all", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body productsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(body.Products))
	}
	if body.Products[0][1] != "ノートパソコン" {
		t.Fatalf("unexpected first product: %v", body.Products[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSelectAppliesQueryConditions(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery("SELECT * FROM products WHERE id = ?").
		WithArgs("3").
		WillReturnRows(productRows().AddRow(int64(3), "キーボード", int64(4980), "メカニカルキーボード", int64(30)))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/select?id=3", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body productsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(body.Products))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSelectUsesFirstValueOfRepeatedKeys(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery("SELECT * FROM products WHERE name = ?").
		WithArgs("モニター").
		WillReturnRows(productRows())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/select?name=%E3%83%A2%E3%83%8B%E3%82%BF%E3%83%BC&name=ignored", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSelectFailureReturnsEmptyList(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectQuery("SELECT * FROM products WHERE bogus = ?").
		WithArgs("x").
		WillReturnError(errors.New("no such column: bogus"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/select?bogus=x", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body productsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(body.Products) != 0 {
		t.Fatalf("expected empty products, got %v", body.Products)
	}
}

func TestInsertSuccess(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("INSERT INTO products (description, name, price, stock) VALUES (?, ?, ?, ?)").
		WithArgs("新商品の説明", "新商品", float64(1000), float64(5)).
		WillReturnResult(sqlmock.NewResult(6, 1))

	body := strings.NewReader(`{"name":"新商品","price":1000,"description":"新商品の説明","stock":5}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/insert", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "商品を追加しました") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertFailureReturns500(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("INSERT INTO products (invalid_column) VALUES (?)").
		WithArgs("value").
		WillReturnError(errors.New("table products has no column named invalid_column"))

	body := strings.NewReader(`{"invalid_column":"value"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/insert", body))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "商品の追加に失敗しました") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestInsertMalformedBodyReturns400(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/insert", strings.NewReader("{not json")))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpdateSplitsConditionsFromRecord(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("UPDATE products SET description = ?, price = ? WHERE name = ?").
		WithArgs("更新後", float64(2500), "更新テスト商品").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := strings.NewReader(`{"conditions":{"name":"更新テスト商品"},"price":2500,"description":"更新後"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/update", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), "商品を更新しました") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateWithoutConditionsTouchesAllRows(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("UPDATE products SET stock = ?").
		WithArgs(float64(0)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	body := strings.NewReader(`{"stock":0}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/update", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateRejectsNonObjectConditions(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := strings.NewReader(`{"conditions":"name","price":100}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPut, "/update", body))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestDeleteSuccess(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("DELETE FROM products WHERE name = ?").
		WithArgs("USBメモリ").
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := strings.NewReader(`{"name":"USBメモリ"}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/delete", body))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "商品を削除しました") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteFailureReturns500(t *testing.T) {
	handler, mock := newTestHandler(t)
	mock.ExpectExec("DELETE FROM products WHERE id = ?").
		WithArgs(float64(9)).
		WillReturnError(errors.New("disk I/O error"))

	body := strings.NewReader(`{"id":9}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/delete", body))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestUnknownPathReturns404JSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["error"] != "Not Found" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestWrongMethodReturns404(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/select_all", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
