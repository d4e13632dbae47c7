package main

import (
	"context"
	"fmt"

	"github.com/MateusGPe/sdcpp-gui-sub001/internal/store"
	"github.com/MateusGPe/sdcpp-gui-sub001/internal/ui"
)

type QueueCmd struct {
	List    QueueListCmd    `cmd:"" name:"ls" help:"List queued requests in run order"`
	Add     QueueAddCmd     `cmd:"" help:"Compile a preset and queue it"`
	Remove  QueueRmCmd      `cmd:"" name:"rm" help:"Remove a queued request"`
	Next    QueueNextCmd    `cmd:"" help:"Print the next pending request"`
	Done    QueueDoneCmd    `cmd:"" help:"Move a finished request to history"`
	Fail    QueueFailCmd    `cmd:"" help:"Mark a request as failed"`
	Retry   QueueRetryCmd   `cmd:"" help:"Mark a request as pending again"`
	Reset   QueueResetCmd   `cmd:"" help:"Return requests left running by a crash to pending"`
	Clear   QueueClearCmd   `cmd:"" help:"Remove every queued request"`
	Reorder QueueReorderCmd `cmd:"" help:"Move requests to the front of the queue"`
}

type QueueListCmd struct{}

func (c *QueueListCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		items, err := st.Queue(ctx)
		if err != nil {
			return err
		}
		rows := make([]ui.QueueRow, 0, len(items))
		for _, it := range items {
			rows = append(rows, ui.QueueRow{
				ID:       it.ID,
				Priority: it.Priority,
				Status:   string(it.Status),
				Model:    it.ModelID,
				Prompt:   it.Prompt,
			})
		}
		ui.PrintQueue(rows)
		return nil
	})
}

type QueueAddCmd struct {
	Source string `arg:"" help:"Preset to queue (p:name or f:path/to/preset.yaml)" predictor:"preset-source"`
}

func (c *QueueAddCmd) Run() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	res, err := a.compile(ctx, c.Source)
	if err != nil {
		return err
	}
	it, err := a.enqueue(ctx, res)
	if err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Queued as %s (position %d)", ui.ShortID(it.ID), it.Priority))
	return nil
}

type QueueRmCmd struct {
	ID string `arg:"" help:"Item id or unique prefix" predictor:"queue-id"`
}

func (c *QueueRmCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		id, err := st.ResolveQueueID(ctx, c.ID)
		if err != nil {
			return mapStoreError(err)
		}
		if err := st.Dequeue(ctx, id); err != nil {
			return mapStoreError(err)
		}
		ui.PrintSuccess(fmt.Sprintf("Item %s removed.", ui.ShortID(id)))
		return nil
	})
}

type QueueNextCmd struct {
	Start bool `help:"Mark the item as running"`
}

func (c *QueueNextCmd) Run() error {
	return withStore(func(ctx context.Context, a *app, st *store.Store) error {
		it, ok, err := st.NextPending(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(ui.Output, "No pending requests.")
			return errQueueEmpty()
		}
		if c.Start {
			if err := st.SetStatus(ctx, it.ID, store.StatusRunning); err != nil {
				return mapStoreError(err)
			}
			it.Status = store.StatusRunning
			a.logger.Info("queue item started", "id", it.ID)
		}
		printGeneration(it.ID, it.CreatedAt, it.Generation)
		fmt.Fprintf(ui.Output, "%s %s\n", ui.Bold("Status:"), ui.StatusBadge(string(it.Status)))
		return nil
	})
}

type QueueDoneCmd struct {
	ID      string   `arg:"" help:"Item id or unique prefix" predictor:"queue-id"`
	Outputs []string `arg:"" optional:"" help:"Generated image files"`
}

func (c *QueueDoneCmd) Run() error {
	return withStore(func(ctx context.Context, a *app, st *store.Store) error {
		id, err := st.ResolveQueueID(ctx, c.ID)
		if err != nil {
			return mapStoreError(err)
		}
		e, err := st.Complete(ctx, id, c.Outputs)
		if err != nil {
			return mapStoreError(err)
		}
		a.logger.Info("queue item completed", "id", id, "history", e.ID, "outputs", len(c.Outputs))
		ui.PrintSuccess(fmt.Sprintf("Item %s moved to history as %s.", ui.ShortID(id), ui.ShortID(e.ID)))
		return nil
	})
}

type QueueFailCmd struct {
	ID string `arg:"" help:"Item id or unique prefix" predictor:"queue-id"`
}

func (c *QueueFailCmd) Run() error {
	return setQueueStatus(c.ID, store.StatusFailed)
}

type QueueRetryCmd struct {
	ID string `arg:"" help:"Item id or unique prefix" predictor:"queue-id"`
}

func (c *QueueRetryCmd) Run() error {
	return setQueueStatus(c.ID, store.StatusPending)
}

func setQueueStatus(ref string, status store.Status) error {
	return withStore(func(ctx context.Context, a *app, st *store.Store) error {
		id, err := st.ResolveQueueID(ctx, ref)
		if err != nil {
			return mapStoreError(err)
		}
		if err := st.SetStatus(ctx, id, status); err != nil {
			return mapStoreError(err)
		}
		a.logger.Info("queue item status changed", "id", id, "status", status)
		ui.PrintSuccess(fmt.Sprintf("Item %s is now %s.", ui.ShortID(id), status))
		return nil
	})
}

type QueueResetCmd struct{}

func (c *QueueResetCmd) Run() error {
	return withStore(func(ctx context.Context, a *app, st *store.Store) error {
		n, err := st.ResetRunning(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("running queue items reset", "count", n)
		ui.PrintSuccess(fmt.Sprintf("Reset %d running item(s) to pending.", n))
		return nil
	})
}

type QueueClearCmd struct {
	Force bool `short:"f" help:"Do not ask for confirmation"`
}

func (c *QueueClearCmd) Run() error {
	if !c.Force && !promptConfirm("Remove every queued request?") {
		fmt.Fprintln(ui.Output, "Cancelled.")
		return nil
	}
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		n, err := st.ClearQueue(ctx)
		if err != nil {
			return err
		}
		ui.PrintSuccess(fmt.Sprintf("Removed %d item(s).", n))
		return nil
	})
}

type QueueReorderCmd struct {
	IDs []string `arg:"" help:"Item ids or unique prefixes, in the wanted order" predictor:"queue-id"`
}

func (c *QueueReorderCmd) Run() error {
	return withStore(func(ctx context.Context, _ *app, st *store.Store) error {
		ids := make([]string, 0, len(c.IDs))
		for _, ref := range c.IDs {
			id, err := st.ResolveQueueID(ctx, ref)
			if err != nil {
				return mapStoreError(err)
			}
			ids = append(ids, id)
		}
		if err := st.Reorder(ctx, ids); err != nil {
			return mapStoreError(err)
		}
		ui.PrintSuccess("Queue reordered.")
		return nil
	})
}
