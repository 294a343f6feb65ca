package enrollment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nao1215/enrollment/internal/store"
	"github.com/nao1215/enrollment/pkg/apperr"
)

// keyRequest は参照・削除リクエストのJSON構造。
type keyRequest struct {
	// TenantID はテナントの識別子。
	TenantID string `json:"tenant_id" validate:"required"`
	// UserID は学生の識別子。
	UserID string `json:"user_id" validate:"required"`
	// Period は学期の識別子。
	Period string `json:"period" validate:"required"`
}

// courseRequest は科目割り当て1件のJSON構造。
type courseRequest struct {
	CourseID    string `json:"CourseID" validate:"required"`
	ProfessorID string `json:"ProfessorID" validate:"required"`
}

// writeRequest は登録・更新リクエストのJSON構造。
// total_credits が0の場合も未指定として扱う。
type writeRequest struct {
	TenantID     string          `json:"tenant_id" validate:"required"`
	UserID       string          `json:"user_id" validate:"required"`
	Period       string          `json:"period" validate:"required"`
	Courses      []courseRequest `json:"courses" validate:"required,min=1,dive"`
	TotalCredits float64         `json:"total_credits" validate:"required"`
}

// key はリクエストの複合キーを返す。
func (r keyRequest) key() store.Key {
	return store.NewKey(r.TenantID, r.UserID, r.Period)
}

// record はリクエストを保存用のレコードに変換する。
func (r writeRequest) record() store.Record {
	key := store.NewKey(r.TenantID, r.UserID, r.Period)
	courses := make([]store.Course, 0, len(r.Courses))
	for _, c := range r.Courses {
		courses = append(courses, store.Course{CourseID: c.CourseID, ProfessorID: c.ProfessorID})
	}
	return store.Record{
		PartitionKey: key.PartitionKey,
		SortKey:      key.SortKey,
		Courses:      courses,
		TotalCredits: r.TotalCredits,
	}
}

// newValidator はエラー時にJSONのフィールド名を報告するバリデーターを生成する。
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindWrite はリクエストボディを登録・更新リクエストとして読み込み検証する。
func (s *Server) bindWrite(c *gin.Context) (writeRequest, error) {
	var req writeRequest
	body, err := readBody(c)
	if err != nil {
		return req, err
	}
	if len(body) == 0 {
		return req, apperr.Validation("リクエストボディが必要です")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, apperr.Validation(fmt.Sprintf("リクエストボディのJSONが不正です: %v", err))
	}
	return req, s.check(req)
}

// bindKey はリクエストボディから複合キーを読み込み検証する。
// ボディが空の場合はクエリパラメーターから読み込む。
func (s *Server) bindKey(c *gin.Context) (keyRequest, error) {
	var req keyRequest
	body, err := readBody(c)
	if err != nil {
		return req, err
	}

	if len(body) == 0 {
		req = keyRequest{
			TenantID: c.Query("tenant_id"),
			UserID:   c.Query("user_id"),
			Period:   c.Query("period"),
		}
	} else if err := json.Unmarshal(body, &req); err != nil {
		return req, apperr.Validation(fmt.Sprintf("リクエストボディのJSONが不正です: %v", err))
	}
	return req, s.check(req)
}

// readBody はリクエストボディを読み込み、前後の空白を除いて返す。
func readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("リクエストボディの読み込みに失敗しました: %v", err))
	}
	return bytes.TrimSpace(body), nil
}

// check は構造体を検証し、不足しているフィールド名を列挙したValidationErrorを返す。
func (s *Server) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace は "writeRequest.courses[0].CourseID" の形なので先頭の型名を落とす
		_, name, _ := strings.Cut(fe.Namespace(), ".")
		fields = append(fields, name)
	}
	return apperr.Validation("必須項目が不足しています: " + strings.Join(fields, ", "))
}
