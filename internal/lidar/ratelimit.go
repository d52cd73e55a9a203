package lidar

import "time"

// RateLimiter limita a frequência de frames encaminhados por canal.
// O estado é tocado apenas pela goroutine do loop de recepção, então
// nenhum lock é necessário.
type RateLimiter struct {
	minInterval time.Duration
	lastForward map[int]time.Time
}

// NewRateLimiter cria um limitador com o intervalo mínimo por canal
func NewRateLimiter(minInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		minInterval: minInterval,
		lastForward: make(map[int]time.Time),
	}
}

// Allow retorna true e registra o envio se o canal estiver fora do
// intervalo mínimo desde o último frame encaminhado
func (r *RateLimiter) Allow(channel int, now time.Time) bool {
	if last, ok := r.lastForward[channel]; ok && now.Sub(last) < r.minInterval {
		return false
	}
	r.lastForward[channel] = now
	return true
}
