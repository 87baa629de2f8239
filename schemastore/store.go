package schemastore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/llmschema/schema"
)

// ErrNotFound 表示名称不存在
var ErrNotFound = errors.New("schema not found")

// Store 命名 Schema 存储
type Store interface {
	// Put 规范化 src 后以 name 保存，覆盖旧值
	Put(ctx context.Context, name string, src any) error
	// Get 读取并规范化；不存在时返回 ErrNotFound
	Get(ctx context.Context, name string) (*schema.Definition, error)
	Delete(ctx context.Context, name string) error
	// List 按名称排序返回全部名称
	List(ctx context.Context) ([]string, error)
}

// ValidateName 名称不能为空且不能含空白字符
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name must not be empty")
	}
	if strings.ContainsFunc(name, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }) {
		return fmt.Errorf("schema name %q must not contain whitespace", name)
	}
	return nil
}

// encode 将任意 Schema 来源转换为可持久化的 JSON 文档
func encode(src any) ([]byte, error) {
	def, err := schema.Normalize(src)
	if err != nil {
		return nil, err
	}
	return def.Document().MarshalJSONIndent()
}

func decode(data []byte) (*schema.Definition, error) {
	doc, err := schema.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Definition()
}

// MemoryStore 进程内实现，用于测试与单机场景
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, name string, src any) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(src)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = data
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (*schema.Definition, error) {
	s.mu.RLock()
	data, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return decode(data)
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.docs, name)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
