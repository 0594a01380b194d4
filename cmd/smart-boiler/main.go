package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awaistahir/smart-boiler/internal/boiler"
	"github.com/awaistahir/smart-boiler/internal/store"
	"github.com/awaistahir/smart-boiler/internal/weather"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbPath  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "smart-boiler",
		Short: "SmartBoiler - Plan electric heating for a solar water heater",
		Long: `SmartBoiler predicts how warm the sun will get your tank and schedules
just enough electric heating so the water is ready when you shower.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.smartboiler/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.smartboiler/smartboiler.db)")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(recurringCmd())
	rootCmd.AddCommand(feedbackCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".smartboiler")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.ReadInConfig()

	if dbPath == "" {
		dbPath = viper.GetString("db")
	}
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		dbPath = filepath.Join(home, ".smartboiler", "smartboiler.db")
	}
}

func openStore() (*store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return st, nil
}

func initCmd() *cobra.Command {
	var capacity, desiredTemp, showerLiters, people int
	var power, lat, lon float64
	var city string
	var sunnyMin, partlyMin, cloudyMin int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up the boiler configuration and seed heating baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg := &boiler.Config{
				CapacityLiters:     capacity,
				HeatingPowerKw:     power,
				DesiredTempC:       desiredTemp,
				Latitude:           lat,
				Longitude:          lon,
				CityName:           city,
				AvgShowerLiters:    showerLiters,
				AvgShowerMinutes:   8,
				DefaultPeopleCount: people,
				OnboardingComplete: true,
			}
			if cfg.CapacityLiters <= 0 || cfg.HeatingPowerKw <= 0 {
				return fmt.Errorf("capacity and power must be positive")
			}
			if err := st.SaveConfig(cfg); err != nil {
				return err
			}

			baselines := []boiler.Baseline{
				{DayType: boiler.DaySunny, DurationMinutes: sunnyMin},
				{DayType: boiler.DayPartlyCloudy, DurationMinutes: partlyMin},
				{DayType: boiler.DayCloudy, DurationMinutes: cloudyMin},
			}
			if err := st.ReplaceBaselines(baselines); err != nil {
				return err
			}

			fmt.Println("✓ Boiler configured")
			fmt.Printf("Database: %s\n", dbPath)
			fmt.Printf("  Tank: %d L, %.1f kW, target %d°C\n", capacity, power, desiredTemp)
			fmt.Printf("  Baselines: sunny %dmin, partly cloudy %dmin, cloudy %dmin\n", sunnyMin, partlyMin, cloudyMin)
			fmt.Println("\nNext steps:")
			fmt.Println("  1. Plan a shower: smart-boiler plan --time 18:00 --people 2")
			fmt.Println("  2. Run the daemon: smartboilerd")

			return nil
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 150, "Tank capacity in liters")
	cmd.Flags().Float64Var(&power, "power", 3.0, "Heating element power in kW")
	cmd.Flags().IntVar(&desiredTemp, "desired-temp", 40, "Desired delivery temperature in °C")
	cmd.Flags().Float64Var(&lat, "lat", 51.5074, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", -0.1278, "Longitude")
	cmd.Flags().StringVar(&city, "city", "", "City name (display only)")
	cmd.Flags().IntVar(&showerLiters, "shower-liters", 50, "Average liters per shower")
	cmd.Flags().IntVar(&people, "people", 2, "Default people count")
	cmd.Flags().IntVar(&sunnyMin, "baseline-sunny", 20, "Estimated heating minutes on sunny days")
	cmd.Flags().IntVar(&partlyMin, "baseline-partly", 40, "Estimated heating minutes on partly cloudy days")
	cmd.Flags().IntVar(&cloudyMin, "baseline-cloudy", 60, "Estimated heating minutes on cloudy days")

	return cmd
}

func planCmd() *cobra.Command {
	var people int
	var date, timeOfDay string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute and save a heating plan for a shower",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetConfig()
			if err != nil {
				return fmt.Errorf("boiler not configured (run 'smart-boiler init' first)")
			}
			baselines, err := st.GetBaselines()
			if err != nil {
				return err
			}

			now := time.Now()
			day := now
			if date != "" {
				day, err = time.Parse(boiler.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}
			if people <= 0 {
				people = cfg.DefaultPeopleCount
			}

			cache := weather.NewCache(weather.NewOpenMeteoClient(), nil)
			fc, err := cache.GetForecast(ctx, cfg.Latitude, cfg.Longitude, day)
			if err != nil {
				return fmt.Errorf("fetching forecast: %w", err)
			}

			sched, err := boiler.PlanShower(people, day, timeOfDay, *cfg, baselines, fc, now)
			if err != nil {
				return err
			}

			id, err := st.InsertSchedule(sched)
			if err != nil {
				return err
			}
			sched.ID = id

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sched)
		},
	}

	cmd.Flags().IntVarP(&people, "people", "p", 0, "Number of people showering (default from config)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Shower date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&timeOfDay, "time", "t", "18:00", "Shower time (HH:MM)")

	return cmd
}

func forecastCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Show the processed weather forecast used by the estimator",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := st.GetConfig()
			if err != nil {
				return fmt.Errorf("boiler not configured (run 'smart-boiler init' first)")
			}

			day := time.Now()
			if date != "" {
				day, err = time.Parse(boiler.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
				}
			}

			cache := weather.NewCache(weather.NewOpenMeteoClient(), nil)
			fc, err := cache.GetForecast(ctx, cfg.Latitude, cfg.Longitude, day)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(fc)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Forecast date (YYYY-MM-DD, default today)")

	return cmd
}

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect shower schedules",
	}

	var date string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if date == "" {
				date = time.Now().Format(boiler.DateLayout)
			}
			schedules, err := st.GetSchedulesForDate(date)
			if err != nil {
				return err
			}

			if len(schedules) == 0 {
				fmt.Printf("No schedules for %s\n", date)
				return nil
			}

			fmt.Printf("%-6s %-8s %-8s %-8s %-10s %s\n", "ID", "TIME", "PEOPLE", "HEAT", "START", "FINAL °C")
			for _, s := range schedules {
				start := "-"
				heat := "no"
				if s.HeatingRequired {
					start = s.HeatingStartTime
					heat = fmt.Sprintf("%dmin", s.HeatingMinutes)
				}
				fmt.Printf("%-6d %-8s %-8d %-8s %-10s %.1f\n",
					s.ID, s.ScheduledTime, s.PeopleCount, heat, start, s.EstimatedFinalTempC)
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&date, "date", "d", "", "Date (YYYY-MM-DD, default today)")

	cmd.AddCommand(listCmd)
	return cmd
}

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record or inspect post-shower feedback",
	}

	var scheduleID int64
	var rating string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Rate a past shower and adjust baselines",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			r := boiler.Rating(rating)
			switch r {
			case boiler.RatingTooCold, boiler.RatingJustRight, boiler.RatingTooHot:
			default:
				return fmt.Errorf("rating must be one of: too_cold, just_right, too_hot")
			}

			sched, err := st.GetSchedule(scheduleID)
			if err != nil {
				return fmt.Errorf("schedule %d not found", scheduleID)
			}
			if _, err := st.FeedbackForSchedule(scheduleID); err == nil {
				return fmt.Errorf("feedback already recorded for schedule %d", scheduleID)
			}

			entry := &boiler.FeedbackEntry{
				ScheduleID:        sched.ID,
				Date:              sched.Date,
				DayType:           sched.DayType,
				Rating:            r,
				HeatingMinutes:    sched.HeatingMinutes,
				CloudCoverPercent: sched.CloudCoverPercent,
				CreatedAt:         time.Now(),
			}
			if _, err := st.InsertFeedback(entry); err != nil {
				return err
			}

			baselines, err := st.GetBaselines()
			if err != nil {
				return err
			}
			updated := boiler.AdjustBaselines(r, sched.DayType, baselines)
			if err := st.ReplaceBaselines(updated); err != nil {
				return err
			}

			fmt.Printf("✓ Feedback recorded for schedule %d (%s, %s)\n", sched.ID, sched.DayType, r)
			return nil
		},
	}
	addCmd.Flags().Int64VarP(&scheduleID, "schedule", "s", 0, "Schedule ID (required)")
	addCmd.Flags().StringVarP(&rating, "rating", "r", "", "Rating: too_cold, just_right or too_hot (required)")
	addCmd.MarkFlagRequired("schedule")
	addCmd.MarkFlagRequired("rating")

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List today's showers still waiting for feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now()
			ids, err := st.SchedulesNeedingFeedback(now.Format(boiler.DateLayout), now.Format(boiler.TimeLayout))
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No showers waiting for feedback")
				return nil
			}
			for _, id := range ids {
				fmt.Printf("schedule %d\n", id)
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd)
	cmd.AddCommand(pendingCmd)
	return cmd
}
