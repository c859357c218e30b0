package application

import (
	"context"
	"time"

	"github.com/AzielCF/az-hub/bridge"
	"github.com/AzielCF/az-hub/instances/domain"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// ReconcilerOptions come from the reconcile subcommand flags.
type ReconcilerOptions struct {
	Interval         time.Duration // pausa entre barridos (mínimo 3s)
	SleepPerInstance time.Duration // respiro entre instancias dentro de un barrido
	StartIfMissing   bool          // crear en el bridge las sesiones ausentes
	OnlyStaleSeconds int           // solo instancias sin updated_at reciente
	Max              int           // tope de instancias por barrido
}

func (o *ReconcilerOptions) normalize() {
	if o.Interval < 3*time.Second {
		o.Interval = 10 * time.Second
	}
	if o.SleepPerInstance <= 0 {
		o.SleepPerInstance = 200 * time.Millisecond
	}
}

// SweepStats summarizes one reconciler pass.
type SweepStats struct {
	Scanned  int
	Updated  int
	Zombies  int
	Started  int
	Errors   int
	Duration time.Duration
}

// Reconciler re-aligns the instance store with the bridge's real session
// state. It is the recovery path after bridge restarts and missed webhooks.
type Reconciler struct {
	repo   domain.InstanceRepository
	bridge *bridge.Client
	opts   ReconcilerOptions
}

func NewReconciler(repo domain.InstanceRepository, bridgeClient *bridge.Client, opts ReconcilerOptions) *Reconciler {
	opts.normalize()
	return &Reconciler{repo: repo, bridge: bridgeClient, opts: opts}
}

// Run loops Sweep until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	logrus.Infof("[RECONCILE] Loop started (interval %s)", r.opts.Interval)
	for {
		stats, err := r.Sweep(ctx)
		if err != nil {
			logrus.Errorf("[RECONCILE] Sweep failed: %v", err)
		} else {
			logrus.Infof("[RECONCILE] Sweep done: %d scanned, %d updated, %d zombies, %d started in %s",
				stats.Scanned, stats.Updated, stats.Zombies, stats.Started, stats.Duration.Round(time.Millisecond))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.Interval):
		}
	}
}

// Sweep lists the bridge sessions ONCE and walks the local instances
// against that snapshot.
func (r *Reconciler) Sweep(ctx context.Context) (*SweepStats, error) {
	start := time.Now()
	stats := &SweepStats{}

	entries, res, err := r.bridge.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if !res.OK {
		logrus.Warnf("[RECONCILE] Bridge list rejected: %s", res.ErrorText())
		return stats, nil
	}

	bySession := make(map[string]bridge.SessionEntry, len(entries))
	for _, e := range entries {
		bySession[e.SessionID] = e
	}

	filter := domain.ListFilter{Max: r.opts.Max}
	if r.opts.OnlyStaleSeconds > 0 {
		cutoff := time.Now().UTC().Add(-time.Duration(r.opts.OnlyStaleSeconds) * time.Second)
		filter.OnlyStaleBefore = &cutoff
	}
	instances, err := r.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, instance := range instances {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.Scanned++
		r.reconcileOne(ctx, instance, bySession, stats)

		if r.opts.SleepPerInstance > 0 {
			time.Sleep(r.opts.SleepPerInstance)
		}
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, instance *domain.Instance, bySession map[string]bridge.SessionEntry, stats *SweepStats) {
	entry, present := bySession[instance.SessionID]

	if present {
		fields := domain.StatusFields{}
		if norm := bridge.NormalizeStatus(entry.Status); norm != "" && norm != string(instance.Status) {
			status := domain.Status(norm)
			fields.Status = &status
		}
		if entry.Token != "" && entry.Token != instance.Token {
			fields.Token = &entry.Token
		}
		if entry.PhoneNumber != "" && entry.PhoneNumber != instance.PhoneConnected {
			fields.Phone = &entry.PhoneNumber
		}
		if fields.Status == nil && fields.Token == nil && fields.Phone == nil {
			return
		}
		if err := r.repo.UpdateStatusFields(ctx, instance.SessionID, fields); err != nil {
			logrus.Warnf("[RECONCILE] Update %s failed: %v", instance.SessionID, err)
			stats.Errors++
			return
		}
		stats.Updated++
		logrus.Debugf("[RECONCILE] %s synced (last seen %s)", instance.SessionID, humanize.Time(instance.UpdatedAt))
		return
	}

	// Ausente del bridge: sesión zombi si localmente figura viva.
	switch instance.Status {
	case domain.StatusConnected:
		empty := ""
		status := domain.StatusDisconnected
		err := r.repo.UpdateStatusFields(ctx, instance.SessionID, domain.StatusFields{
			Status: &status,
			Token:  &empty,
			Phone:  &empty,
		})
		if err != nil {
			stats.Errors++
			return
		}
		stats.Zombies++
		logrus.Warnf("[RECONCILE] Zombie session %s (connected locally, gone on bridge; last seen %s)",
			instance.SessionID, humanize.Time(instance.UpdatedAt))
	case domain.StatusQRScanned:
		status := domain.StatusDisconnected
		if err := r.repo.UpdateStatusFields(ctx, instance.SessionID, domain.StatusFields{Status: &status}); err != nil {
			stats.Errors++
			return
		}
		stats.Updated++
	}

	if r.opts.StartIfMissing && instance.Status != domain.StatusBan {
		if _, err := r.bridge.CreateSession(ctx, instance.SessionID); err != nil {
			logrus.Warnf("[RECONCILE] Restart of %s failed: %v", instance.SessionID, err)
			stats.Errors++
			return
		}
		stats.Started++
		logrus.Infof("[RECONCILE] Session %s restarted on bridge", instance.SessionID)
	}
}
