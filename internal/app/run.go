// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Okunev

package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/internal/export"
	"github.com/okunev/passvault/internal/match"
	"github.com/okunev/passvault/internal/retry"
	"github.com/okunev/passvault/internal/workers"
	"github.com/okunev/passvault/models"
)

const usage = `usage: passvault [flags] <command> [args]

commands:
  init        provision a new vault
  add         add a password record
  list        list stored records (titles and usernames only)
  rm          delete a record by id
  copy        find the best match for a query and copy its password
  sync        run one synchronization pass against the remote store
  export      write an encrypted backup file
  import      restore records from an encrypted backup file
  passwd      change the vault passphrase
  watch       keep running: periodic sync and idle auto-lock
  status      show vault and queue state
`

// Run dispatches one command-line verb. args are the arguments remaining
// after global flag parsing.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "init":
		return a.cmdInit(ctx)
	case "add":
		return a.cmdAdd(ctx, rest)
	case "list":
		return a.cmdList(ctx)
	case "rm":
		return a.cmdRemove(ctx, rest)
	case "copy":
		return a.cmdCopy(ctx, rest)
	case "sync":
		return a.cmdSync(ctx)
	case "export":
		return a.cmdExport(ctx, rest)
	case "import":
		return a.cmdImport(ctx, rest)
	case "passwd":
		return a.cmdChangePassphrase(ctx)
	case "watch":
		return a.cmdWatch(ctx)
	case "status":
		return a.cmdStatus(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", verb)
	}
}

func (a *App) cmdInit(ctx context.Context) error {
	if _, err := os.Stat(a.credentialsPath()); err == nil {
		return errors.New(MsgVaultAlreadyProvisioned)
	}

	passphrase, err := promptLine("Choose a vault passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := promptLine("Repeat the passphrase: ")
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return errors.New("passphrases do not match")
	}

	creds, err := a.manager.Provision(ctx, passphrase)
	if err != nil {
		return fmt.Errorf("provision vault: %w", err)
	}
	if err := a.saveCredentials(creds); err != nil {
		return err
	}

	fmt.Println("Vault created.")
	return nil
}

func (a *App) cmdAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "record title")
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "secret (prompted when omitted)")
	url := fs.String("url", "", "site or service URL")
	notes := fs.String("notes", "", "free-form notes")
	favorite := fs.Bool("favorite", false, "mark as favorite")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("-title is required")
	}

	key, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer a.manager.Lock()

	secret := *password
	if secret == "" {
		secret, err = promptLine("Password for the new record: ")
		if err != nil {
			return err
		}
	}

	now := time.Now()
	rec := models.PasswordRecord{
		ID:        uuid.NewString(),
		Title:     *title,
		Username:  *username,
		Password:  secret,
		URL:       *url,
		Favorite:  *favorite,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if *notes != "" {
		n := *notes
		rec.Notes = &n
	}

	enc, err := a.codec.ToStorageForm(rec, key)
	if err != nil {
		return fmt.Errorf("encrypt record: %w", err)
	}
	if err := a.storages.Records.Save(ctx, enc); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if err := a.engine.EnqueueRecord(ctx, models.OpCreate, enc); err != nil {
		return fmt.Errorf("queue record for sync: %w", err)
	}

	fmt.Println(rec.ID)
	return nil
}

// cmdList prints the queryable plaintext columns only; no vault key is
// needed and none is derived.
func (a *App) cmdList(ctx context.Context) error {
	recs, err := a.storages.Records.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	for _, rec := range recs {
		marker := " "
		if rec.Quarantined {
			marker = "!"
		}
		fmt.Printf("%s %s  %-24s %-20s %s\n", marker, rec.ID, rec.Title, rec.Username, rec.URL)
	}
	return nil
}

func (a *App) cmdRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: passvault rm <id>")
	}
	id := args[0]

	if _, err := a.storages.Records.Get(ctx, id); err != nil {
		return fmt.Errorf("look up record: %w", err)
	}
	if err := a.storages.Records.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := a.engine.Enqueue(ctx, models.OpDelete, models.EntityPassword, id, nil); err != nil {
		return fmt.Errorf("queue deletion for sync: %w", err)
	}
	return nil
}

func (a *App) cmdCopy(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: passvault copy <query>")
	}
	query := args[0]

	key, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer a.manager.Lock()

	encs, err := a.storages.Records.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	recs, err := a.codec.ToDomainBatch(encs, key)
	if err != nil {
		return fmt.Errorf("decrypt records: %w", err)
	}
	a.persistQuarantine(ctx, encs, recs)

	best, ok := pickMatch(recs, query)
	if !ok {
		return errors.New(MsgNoMatches)
	}
	if best.Quarantined {
		return errors.New(MsgRecordQuarantined)
	}

	if err := clipboard.WriteAll(best.Password); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	fmt.Printf("%s (%s)\n", MsgCopied, best.Title)
	return nil
}

// persistQuarantine durably flags records whose decryption failed in this
// pass, so list and status report them quarantined from now on. recs is the
// decoded counterpart of encs, same order.
func (a *App) persistQuarantine(ctx context.Context, encs []models.EncryptedRecord, recs []models.PasswordRecord) {
	for i, rec := range recs {
		if rec.Quarantined && !encs[i].Quarantined {
			if err := a.storages.Records.SetQuarantined(ctx, rec.ID, true); err != nil {
				a.log.Err(err).Str("record_id", rec.ID).Msg("persist quarantine flag")
			}
		}
	}
}

// pickMatch runs domain scoring first and falls back to a case-insensitive
// title/username scan when the query carries no recognizable domain.
func pickMatch(recs []models.PasswordRecord, query string) (models.PasswordRecord, bool) {
	matches := match.FindMatches(recs, match.Context{WebDomain: match.ExtractDomain(query)})
	if len(matches) > 0 {
		return matches[0], true
	}

	needle := strings.ToLower(query)
	for _, rec := range recs {
		if strings.Contains(strings.ToLower(rec.Title), needle) ||
			strings.Contains(strings.ToLower(rec.Username), needle) {
			return rec, true
		}
	}
	return models.PasswordRecord{}, false
}

func (a *App) cmdSync(ctx context.Context) error {
	report, err := a.engine.Synchronize(ctx)
	if err != nil {
		if errors.Is(err, retry.ErrSyncNotConfigured) {
			return errors.New(MsgSyncNotConfigured)
		}
		return fmt.Errorf("synchronize: %w", err)
	}

	fmt.Printf("pushed %d, pulled %d, merged %d, conflicts %d, failed %d in %s\n",
		report.Pushed, report.Pulled, report.Merged, report.Conflicts, report.Failed, report.Duration.Round(time.Millisecond))
	return nil
}

func (a *App) cmdExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: passvault export <file>")
	}
	path := args[0]

	key, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer a.manager.Lock()

	encs, err := a.storages.Records.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	recs, err := a.codec.ToDomainBatch(encs, key)
	if err != nil {
		return fmt.Errorf("decrypt records: %w", err)
	}
	a.persistQuarantine(ctx, encs, recs)

	passphrase, err := promptLine("Backup passphrase: ")
	if err != nil {
		return err
	}
	data, err := a.exporter.Export(recs, passphrase)
	if err != nil {
		return fmt.Errorf("build backup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}

	fmt.Printf("Exported %d records to %s\n", len(recs), path)
	return nil
}

func (a *App) cmdImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	mode := fs.String("mode", string(export.ModeMerge), "merge or replace")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: passvault import [-mode merge|replace] <file>")
	}
	importMode := export.ImportMode(*mode)
	if importMode != export.ModeMerge && importMode != export.ModeReplace {
		return fmt.Errorf("unknown import mode %q", *mode)
	}

	key, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	defer a.manager.Lock()

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	passphrase, err := promptLine("Backup passphrase: ")
	if err != nil {
		return err
	}

	recs, err := a.exporter.Import(data, passphrase)
	if err != nil {
		if errors.Is(err, export.ErrWrongPassphrase) {
			return errors.New(MsgWrongPassphrase)
		}
		return fmt.Errorf("open backup: %w", err)
	}

	if importMode == export.ModeReplace {
		if err := a.storages.Records.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}
	}

	for _, rec := range recs {
		enc, err := a.codec.ToStorageForm(rec, key)
		if err != nil {
			return fmt.Errorf("encrypt imported record %q: %w", rec.Title, err)
		}
		if err := a.storages.Records.Save(ctx, enc); err != nil {
			return fmt.Errorf("save imported record: %w", err)
		}
		if err := a.engine.EnqueueRecord(ctx, models.OpCreate, enc); err != nil {
			return fmt.Errorf("queue imported record for sync: %w", err)
		}
	}

	fmt.Printf("Imported %d records\n", len(recs))
	return nil
}

func (a *App) cmdChangePassphrase(ctx context.Context) error {
	creds, err := a.loadCredentials()
	if err != nil {
		return err
	}

	oldPassphrase, err := promptLine("Current passphrase: ")
	if err != nil {
		return err
	}
	newPassphrase, err := promptLine("New passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := promptLine("Repeat the new passphrase: ")
	if err != nil {
		return err
	}
	if newPassphrase != confirm {
		return errors.New("passphrases do not match")
	}

	next, err := a.manager.ChangePassphrase(ctx, oldPassphrase, newPassphrase, creds)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return errors.New(MsgWrongPassphrase)
		}
		return fmt.Errorf("change passphrase: %w", err)
	}
	defer a.manager.Lock()

	if err := a.saveCredentials(next); err != nil {
		return err
	}
	fmt.Println("Passphrase changed.")
	return nil
}

// cmdWatch unlocks the vault and keeps the process alive: the auto-lock
// worker relocks after idle, and the sync job (when a remote is configured)
// runs periodic and change-triggered passes.
func (a *App) cmdWatch(ctx context.Context) error {
	if _, err := a.unlock(ctx); err != nil {
		return err
	}

	ws := []workers.Worker{a.autoLock}
	if a.job != nil {
		ws = append(ws, a.job)
	}
	workers.NewWorkers(ws...).Run()

	a.log.Info().Str("func", "cmdWatch").Msg("watching; press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func (a *App) cmdStatus(ctx context.Context) error {
	provisioned := false
	if _, err := os.Stat(a.credentialsPath()); err == nil {
		provisioned = true
	}

	recs, err := a.storages.Records.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	quarantined := 0
	for _, rec := range recs {
		if rec.Quarantined {
			quarantined++
		}
	}

	pending, err := a.storages.Queue.Pending(ctx, 0)
	if err != nil {
		return fmt.Errorf("load pending operations: %w", err)
	}
	failed, err := a.storages.Queue.Failed(ctx)
	if err != nil {
		return fmt.Errorf("load failed operations: %w", err)
	}
	lastSync, err := a.storages.Meta.LastSync(ctx)
	if err != nil {
		return fmt.Errorf("load sync watermark: %w", err)
	}

	fmt.Printf("provisioned:  %v\n", provisioned)
	fmt.Printf("records:      %d (%d quarantined)\n", len(recs), quarantined)
	fmt.Printf("queue:        %d pending, %d failed\n", len(pending), len(failed))
	if lastSync.IsZero() {
		fmt.Println("last sync:    never")
	} else {
		fmt.Printf("last sync:    %s\n", lastSync.Format(time.RFC3339))
	}
	return nil
}

// unlock loads the persisted credentials, prompts for the passphrase, and
// returns the session key. Callers own relocking.
func (a *App) unlock(ctx context.Context) ([]byte, error) {
	creds, err := a.loadCredentials()
	if err != nil {
		return nil, err
	}

	passphrase, err := promptLine("Vault passphrase: ")
	if err != nil {
		return nil, err
	}
	if err := a.manager.UnlockWithPassphrase(ctx, passphrase, creds); err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return nil, errors.New(MsgWrongPassphrase)
		}
		return nil, fmt.Errorf("unlock vault: %w", err)
	}
	a.autoLock.Touch()

	return a.manager.SessionKey()
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
