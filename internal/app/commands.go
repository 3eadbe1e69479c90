package app

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophvault/internal/access"
	"github.com/dmitrijs2005/gophvault/internal/accesscontrol"
	"github.com/dmitrijs2005/gophvault/internal/accessors"
	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/expiry"
	"github.com/dmitrijs2005/gophvault/internal/integration"
	"github.com/dmitrijs2005/gophvault/internal/items"
	"github.com/dmitrijs2005/gophvault/internal/permissions"
	"github.com/dmitrijs2005/gophvault/internal/search"
)

func (a *App) migrate(ctx context.Context) error {
	if err := a.repos.RunMigrations(ctx, a.db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.logger.Info(ctx, "migrations applied")
	return nil
}

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

// login prompts for the password of name and unlocks that user.
func (a *App) login(ctx context.Context, name string) (*accessors.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: -user is required", ErrUsage)
	}
	pw, err := GetPassword(a.prompt, "Password for "+name)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	return accessors.Unlock(ctx, a.repos.Users(a.db), name, pw)
}

func (a *App) resolver(db dbx.DBTX) *accessors.Resolver {
	return accessors.NewResolver(a.repos.Users(db), a.repos.Groups(db), a.repos.Memberships(db))
}

func (a *App) collector(db dbx.DBTX) *access.Collector {
	return access.NewCollector(a.repos.UserAccessControls(db), a.repos.GroupAccessControls(db), a.resolver(db), a.logger)
}

func (a *App) search(ctx context.Context, args []string) error {
	fs := a.flagSet("search")
	user := fs.String("user", "", "operator user name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: search needs USERNAME and LOCATION", ErrUsage)
	}

	u, err := a.login(ctx, *user)
	if err != nil {
		return err
	}

	engine := search.NewEngine(a.repos.Locations(a.db), a.repos.Items(a.db), a.collector(a.db), a.logger)
	ids, err := engine.SearchForIDs(ctx, u.Key, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	for _, id := range ids {
		fmt.Fprintln(a.out, id)
	}
	return nil
}

func (a *App) expiring(ctx context.Context, args []string) error {
	fs := a.flagSet("expiring")
	user := fs.String("user", "", "operator user name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	u, err := a.login(ctx, *user)
	if err != nil {
		return err
	}

	sc, err := expiry.NewScanner(ctx, a.repos.Configuration(a.db), a.repos.Nodes(a.db), u.ID, a.now(),
		a.config.MaxHierarchyDepth, a.logger)
	if err != nil {
		return fmt.Errorf("expiring: %w", err)
	}
	if err := expiry.Run(ctx, sc, a.collector(a.db), a.repos.Items(a.db), u.Key); err != nil {
		return fmt.Errorf("expiring: %w", err)
	}

	for _, id := range sc.Expired() {
		fmt.Fprintf(a.out, "expired\t%s\n", id)
	}
	for _, id := range sc.Expiring() {
		fmt.Fprintf(a.out, "expiring\t%s\n", id)
	}
	return nil
}

// parseGrants reads "user:NAME=PERM" and "group:NAME=PERM" arguments.
func parseGrants(args []string) (userPerms, groupPerms map[string]accesscontrol.Permission, err error) {
	userPerms = map[string]accesscontrol.Permission{}
	groupPerms = map[string]accesscontrol.Permission{}

	for _, arg := range args {
		kind, rest, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q is not KIND:NAME=PERM", ErrUsage, arg)
		}
		name, raw, ok := strings.Cut(rest, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("%w: %q is not KIND:NAME=PERM", ErrUsage, arg)
		}
		perm, err := accesscontrol.ParsePermission(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
		}

		switch kind {
		case "user":
			userPerms[name] = perm
		case "group":
			groupPerms[name] = perm
		default:
			return nil, nil, fmt.Errorf("%w: unknown accessor kind %q", ErrUsage, kind)
		}
	}
	return userPerms, groupPerms, nil
}

// grant runs the whole permission batch in one transaction. Any failed entry
// rolls the batch back.
func (a *App) grant(ctx context.Context, args []string) error {
	fs := a.flagSet("grant")
	user := fs.String("user", "", "operator user name")
	itemID := fs.String("item", "", "item id")
	overwrite := fs.Bool("overwrite", false, "replace existing access controls")
	replace := fs.Bool("replace", false, "revoke every accessor not named")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *itemID == "" {
		return fmt.Errorf("%w: -item is required", ErrUsage)
	}
	userPerms, groupPerms, err := parseGrants(fs.Args())
	if err != nil {
		return err
	}

	u, err := a.login(ctx, *user)
	if err != nil {
		return err
	}

	var res *permissions.Result
	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := a.resolver(tx)
		adminGroup, err := r.GroupByID(ctx, a.config.AdminGroupID, u.Key)
		if err != nil {
			return err
		}
		userACs, groupACs := a.repos.UserAccessControls(tx), a.repos.GroupAccessControls(tx)

		setter, err := permissions.NewSetter(ctx, r, userACs, groupACs, adminGroup.Key, a.logger)
		if err != nil {
			return err
		}

		if *replace {
			res, err = setter.ReplacePermissions(ctx, *itemID, userPerms, groupPerms)
			if err != nil {
				return err
			}
		} else {
			rec, err := groupACs.Get(ctx, adminGroup.ID, *itemID)
			if err != nil {
				return fmt.Errorf("admin access to %s: %w", *itemID, err)
			}
			ref := accesscontrol.FromRecord(rec)
			if err := ref.OpenWith(adminGroup.Key); err != nil {
				return err
			}
			res = setter.StoreUserPermissions(ctx, ref, userPerms, *overwrite)
			groupRes := setter.StoreGroupPermissions(ctx, ref, groupPerms, *overwrite)
			res.Written = append(res.Written, groupRes.Written...)
			res.Skipped = append(res.Skipped, groupRes.Skipped...)
			res.Revoked = append(res.Revoked, groupRes.Revoked...)
			res.Failed = append(res.Failed, groupRes.Failed...)
		}

		if len(res.Failed) > 0 {
			return fmt.Errorf("grant failed for %s", strings.Join(res.Failed, ", "))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("grant: %w", err)
	}

	printNames(a, "written", res.Written)
	printNames(a, "skipped", res.Skipped)
	printNames(a, "revoked", res.Revoked)
	return nil
}

func printNames(a *App, label string, names []string) {
	if len(names) > 0 {
		fmt.Fprintf(a.out, "%s: %s\n", label, strings.Join(names, ", "))
	}
}

// change rotates the password of an item through the changer of its
// location. The operator needs modify access to the item.
func (a *App) change(ctx context.Context, args []string) error {
	fs := a.flagSet("change")
	user := fs.String("user", "", "operator user name")
	itemID := fs.String("item", "", "item id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *itemID == "" {
		return fmt.Errorf("%w: -item is required", ErrUsage)
	}

	u, err := a.login(ctx, *user)
	if err != nil {
		return err
	}
	ac, err := a.collector(a.db).OpenForItem(ctx, u.Key, *itemID, true)
	if err != nil {
		return fmt.Errorf("change: %w", err)
	}

	pw, err := GetPassword(a.prompt, "New password for item "+*itemID)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	rotator := integration.NewRotator(a.changers, a.repos.Locations(a.db), a.repos.Items(a.db))
	if err := rotator.Rotate(ctx, ac, string(pw)); err != nil {
		return fmt.Errorf("change: %w", err)
	}
	fmt.Fprintf(a.out, "changed %s\n", *itemID)
	return nil
}

// remove deletes an item and all access to it in one transaction. The
// operator needs modify access to the item.
func (a *App) remove(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	user := fs.String("user", "", "operator user name")
	itemID := fs.String("item", "", "item id")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if *itemID == "" {
		return fmt.Errorf("%w: -item is required", ErrUsage)
	}

	u, err := a.login(ctx, *user)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := a.collector(tx).OpenForItem(ctx, u.Key, *itemID, true); err != nil {
			return err
		}
		svc := items.NewService(a.repos.Items(tx), a.repos.UserAccessControls(tx), a.repos.GroupAccessControls(tx))
		return svc.Delete(ctx, *itemID)
	})
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	fmt.Fprintf(a.out, "deleted %s\n", *itemID)
	return nil
}

func (a *App) listChangers() error {
	for _, id := range a.changers.IDs() {
		fmt.Fprintln(a.out, id)
	}
	return nil
}
