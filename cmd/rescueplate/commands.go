package main

import (
	"errors"
	"fmt"
	"strings"

	"rescueplate/internal/models"
	"rescueplate/pkg/client"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs.
type app struct {
	cfg    *viper.Viper
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: viper.New()}
	a.cfg.SetEnvPrefix("RESCUEPLATE")
	a.cfg.SetDefault("API_URL", "http://localhost:5000")
	a.cfg.SetDefault("SESSION_FILE", client.DefaultSessionPath())
	a.cfg.AutomaticEnv()

	root := &cobra.Command{
		Use:           "rescueplate",
		Short:         "Browse and manage surplus food listings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			session := client.NewSession(client.NewFileSessionStore(a.cfg.GetString("SESSION_FILE")))
			if err := session.Init(); err != nil {
				return fmt.Errorf("failed to restore session: %w", err)
			}
			a.client = client.New(a.cfg.GetString("API_URL"), session)
			return nil
		},
	}
	root.PersistentFlags().String("api-url", "", "API base URL (env RESCUEPLATE_API_URL)")
	root.PersistentFlags().String("session-file", "", "where the session is kept (env RESCUEPLATE_SESSION_FILE)")
	_ = a.cfg.BindPFlag("API_URL", root.PersistentFlags().Lookup("api-url"))
	_ = a.cfg.BindPFlag("SESSION_FILE", root.PersistentFlags().Lookup("session-file"))

	root.AddCommand(
		a.browseCmd(),
		a.showCmd(),
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.mineCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
	)
	return root
}

func (a *app) requireVendor() error {
	session := a.client.Session()
	if !session.IsAuthenticated() {
		return errors.New("you are not signed in; run 'rescueplate login' first")
	}
	if !session.IsVendor() {
		return errors.New("only vendor accounts can manage listings")
	}
	return nil
}

func (a *app) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "List every available listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.RenderListings(cmd.OutOrStdout(), a.client.Listings())
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <listing-id>",
		Short: "Show one listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := a.client.Listing(args[0])
			if err != nil {
				return err
			}
			return client.RenderListing(cmd.OutOrStdout(), *listing)
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var name, email, password, role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Register(name, email, password, models.Role(strings.ToUpper(role)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Signed in as %s.\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display or business name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (at least 6 characters)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCustomer), "VENDOR or CUSTOMER")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.client.Login(email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", user.Name, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *app) mineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Show your vendor dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireVendor(); err != nil {
				return err
			}
			listings, err := a.client.MyListings()
			if err != nil {
				return err
			}
			return client.RenderDashboard(cmd.OutOrStdout(), a.client.Session().User(), listings)
		},
	}
}

// listingFlags binds the editable listing fields to flags.
type listingFlags struct {
	title, description, category, quantity, pickupTime string
	price, originalPrice                               float64
}

func (f *listingFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "listing title")
	cmd.Flags().StringVar(&f.description, "description", "", "what is on offer")
	cmd.Flags().Float64Var(&f.price, "price", 0, "rescue price")
	cmd.Flags().Float64Var(&f.originalPrice, "original-price", 0, "regular price, shown as a discount")
	cmd.Flags().StringVar(&f.category, "category", "", "HUMAN or ANIMAL")
	cmd.Flags().StringVar(&f.quantity, "quantity", "", "how much, e.g. '5 boxes'")
	cmd.Flags().StringVar(&f.pickupTime, "pickup-time", "", "pickup window, e.g. 'Today 9-10 PM'")
}

func (a *app) createCmd() *cobra.Command {
	var f listingFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new listing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireVendor(); err != nil {
				return err
			}
			input := models.CreateListingInput{
				Title:       f.title,
				Description: f.description,
				Price:       f.price,
				Category:    models.Category(strings.ToUpper(f.category)),
				Quantity:    f.quantity,
				PickupTime:  f.pickupTime,
			}
			if cmd.Flags().Changed("original-price") {
				op := f.originalPrice
				input.OriginalPrice = &op
			}
			listing, err := a.client.CreateListing(input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created listing %s.\n", listing.ID)
			return nil
		},
	}
	f.bind(cmd)
	for _, name := range []string{"title", "description", "price", "category", "quantity", "pickup-time"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var f listingFlags
	var clearOriginal bool
	cmd := &cobra.Command{
		Use:   "update <listing-id>",
		Short: "Change some fields of one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireVendor(); err != nil {
				return err
			}
			patch := f.patch(cmd)
			if clearOriginal {
				if patch.OriginalPrice != nil {
					return errors.New("--original-price and --clear-original-price cannot be combined")
				}
				patch.ClearOriginalPrice = true
			}
			if patch.IsEmpty() {
				return errors.New("nothing to update; pass at least one field flag")
			}
			listing, err := a.client.UpdateListing(args[0], patch)
			if err != nil {
				return err
			}
			return client.RenderListing(cmd.OutOrStdout(), *listing)
		},
	}
	f.bind(cmd)
	cmd.Flags().BoolVar(&clearOriginal, "clear-original-price", false, "remove the original price and its discount badge")
	return cmd
}

// patch includes only the flags given on the command line.
func (f *listingFlags) patch(cmd *cobra.Command) models.UpdateListingInput {
	var patch models.UpdateListingInput
	changed := cmd.Flags().Changed
	if changed("title") {
		patch.Title = &f.title
	}
	if changed("description") {
		patch.Description = &f.description
	}
	if changed("price") {
		patch.Price = &f.price
	}
	if changed("original-price") {
		patch.OriginalPrice = &f.originalPrice
	}
	if changed("category") {
		c := models.Category(strings.ToUpper(f.category))
		patch.Category = &c
	}
	if changed("quantity") {
		patch.Quantity = &f.quantity
	}
	if changed("pickup-time") {
		patch.PickupTime = &f.pickupTime
	}
	return patch
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <listing-id>",
		Short: "Delete one of your listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireVendor(); err != nil {
				return err
			}
			if err := a.client.DeleteListing(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted listing %s.\n", args[0])
			return nil
		},
	}
}
