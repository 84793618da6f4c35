package service

import (
	"context"
	"log"
	"time"
)

// StartExpirySweeper closes timed-out attempts every interval until ctx is cancelled.
func StartExpirySweeper(ctx context.Context, svc *AttemptService, interval time.Duration) {
	if interval <= 0 {
		log.Println("[AttemptSweeper] disabled (interval <= 0)")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("[AttemptSweeper] running every %s (grace %s)", interval, svc.Grace)
		for {
			select {
			case <-ctx.Done():
				log.Println("[AttemptSweeper] stopped")
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, interval)
				n, err := svc.SweepExpired(runCtx)
				cancel()
				if err != nil {
					log.Printf("[AttemptSweeper ERROR] %v", err)
				} else if n > 0 {
					log.Printf("[AttemptSweeper] %d expired attempt(s) force-submitted", n)
				}
			}
		}
	}()
}
