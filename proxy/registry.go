package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Registry - это потокобезопасный реестр именованных прокси, например по
// одному на кластер или базу данных.
type Registry struct {
	proxies map[string]*Proxy
	mu      sync.RWMutex
}

// NewRegistry создает новый экземпляр реестра.
func NewRegistry() *Registry {
	return &Registry{
		proxies: make(map[string]*Proxy),
	}
}

// Get возвращает прокси с указанным именем, создавая его при первом обращении.
// При повторных обращениях транспорт и опции игнорируются.
func Get(r *Registry, name string, transport Transport, opts ...Option) (*Proxy, error) {
	r.mu.RLock()
	p, exists := r.proxies[name]
	r.mu.RUnlock()

	if exists {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Повторная проверка на случай, если прокси был создан во время ожидания блокировки.
	if p, exists := r.proxies[name]; exists {
		return p, nil
	}

	p, err := NewProxy(transport, opts...)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать прокси '%s': %w", name, err)
	}
	r.proxies[name] = p

	return p, nil
}

// Lookup возвращает ранее созданный прокси.
func (r *Registry) Lookup(name string) (*Proxy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proxies[name]
	return p, ok
}

// Shutdown корректно завершает работу всех зарегистрированных прокси.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, p := range r.proxies {
		if err := p.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("ошибка при завершении работы прокси '%s': %w", name, err))
		}
	}

	return errors.Join(errs...)
}
