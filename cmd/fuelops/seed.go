package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	handler "github.com/neomorfeo/fuelops/internal/adapter/http"
	"github.com/neomorfeo/fuelops/internal/adapter/sqlite"
	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

type seedLocation struct {
	address  string
	lat, lng float64
}

type seedClient struct {
	name      string
	contact   string
	locations []seedLocation
}

type seedTruck struct {
	plate    string
	capacity int
}

type seedTenant struct {
	name    string
	slug    string
	clients []seedClient
	trucks  []seedTruck
}

var demoTenants = []seedTenant{
	{
		name: "Acme Fuel",
		slug: "acme",
		clients: []seedClient{
			{name: "North Site", contact: "Dana Reyes", locations: []seedLocation{
				{address: "1 Depot Rd", lat: 52.52, lng: 13.40},
				{address: "14 Quarry Ln", lat: 52.55, lng: 13.35},
			}},
			{name: "South Site", contact: "Lee Park", locations: []seedLocation{
				{address: "200 Harbor Ave", lat: 52.45, lng: 13.42},
			}},
		},
		trucks: []seedTruck{{plate: "ACME-101", capacity: 10000}, {plate: "ACME-102", capacity: 8000}},
	},
	{
		name: "Globex Energy",
		slug: "globex",
		clients: []seedClient{
			{name: "Riverside Farms", contact: "Sam Okafor", locations: []seedLocation{
				{address: "7 Mill Rd", lat: 48.14, lng: 11.58},
			}},
		},
		trucks: []seedTruck{{plate: "GLBX-1", capacity: 12000}},
	},
}

var seedRoles = []struct {
	role  domain.Role
	local string
}{
	{domain.RoleAdmin, "admin"},
	{domain.RoleDispatcher, "dispatcher"},
	{domain.RoleDriver, "driver"},
	{domain.RoleClientRep, "rep"},
}

func newSeedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo tenants, users and fleet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			svc := newServices(db, sqlite.NewRecorder(db.ActivityLogs()), logger)
			for _, t := range demoTenants {
				if err := seed(cmd.Context(), svc, t, logger, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("seeding %s: %w", t.slug, err)
				}
			}
			return nil
		},
	}
}

// seed creates one demo tenant. Tenants that already exist are left untouched.
func seed(ctx context.Context, svc handler.Services, t seedTenant, logger *slog.Logger, out io.Writer) error {
	tenant, err := svc.Tenants.Create(ctx, app.CreateTenantInput{Name: t.name, Slug: t.slug})
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		logger.Info("tenant already seeded", "slug", t.slug)
		return nil
	}
	if err != nil {
		return err
	}

	var admin domain.Actor
	for _, r := range seedRoles {
		user, err := svc.Tenants.CreateUser(ctx, tenant.Scope(), app.CreateUserInput{
			Name:  strings.ToUpper(t.slug[:1]) + t.slug[1:] + " " + r.local,
			Email: r.local + "@" + t.slug + ".test",
			Role:  r.role,
		})
		if err != nil {
			return err
		}
		if r.role == domain.RoleAdmin {
			admin = domain.Actor{UserID: user.ID, TenantID: user.TenantID, Role: user.Role}
		}
		fmt.Fprintf(out, "%s\t%-10s\t%s\n", t.slug, r.role, user.Email)
	}

	for _, c := range t.clients {
		client, err := svc.Clients.Create(ctx, tenant.Scope(), admin, app.CreateClientInput{Name: c.name, ContactPerson: c.contact})
		if err != nil {
			return err
		}
		for _, l := range c.locations {
			if _, err := svc.Locations.Create(ctx, tenant.Scope(), admin, app.CreateLocationInput{
				ClientID: client.ID,
				Address:  l.address,
				Lat:      &l.lat,
				Lng:      &l.lng,
			}); err != nil {
				return err
			}
		}
	}

	for _, tr := range t.trucks {
		if _, err := svc.Trucks.Create(ctx, tenant.Scope(), admin, app.CreateTruckInput{PlateNo: tr.plate, TankCapacityL: tr.capacity}); err != nil {
			return err
		}
	}

	logger.Info("tenant seeded", "slug", t.slug, "clients", len(t.clients), "trucks", len(t.trucks))
	return nil
}
