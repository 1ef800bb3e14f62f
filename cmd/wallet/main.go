package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/adelekeogunsona/solana-web-wallet/internal/config"
	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Solana Wallet CLI",
	Long:  `A Solana wallet with both interactive and CLI modes, plus an HTTP API for the browser front-end.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(endpointsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Error reading viper config: %s", err.Error())
	}

	if err := logger.Init(viper.GetString("log_file")); err != nil {
		log.Printf("Error initializing logger: %v", err)
	}
	logger.SetLevel(viper.GetString("log_level"))
}

func main() {
	initConfig()
	defer logger.Cleanup()

	if len(os.Args) > 1 {
		// CLI mode
		if err := rootCmd.Execute(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	} else {
		// Interactive mode
		interactiveMode()
	}
}

func interactiveMode() {
	app, err := openApp()
	if err != nil {
		log.Fatalf("Error starting wallet: %v", err)
	}
	defer app.Close()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nSolana Wallet Manager")
		fmt.Println("1. Create a new wallet")
		fmt.Println("2. Import an existing wallet")
		fmt.Println("3. Login")
		fmt.Println("4. Show balance")
		fmt.Println("5. Send SOL")
		fmt.Println("6. Show receive address")
		fmt.Println("7. Reset vault")
		fmt.Println("8. Exit")
		fmt.Print("\nEnter your choice (1-8): ")
		choice, _ := reader.ReadString('\n')
		choice = strings.TrimSpace(choice)

		var actionErr error
		switch choice {
		case "1":
			actionErr = app.interactiveCreate(reader)
		case "2":
			actionErr = app.interactiveImport(reader)
		case "3":
			actionErr = app.interactiveLogin()
		case "4":
			actionErr = app.printBalance()
		case "5":
			actionErr = app.interactiveSend(reader)
		case "6":
			actionErr = app.printReceiveAddress(false)
		case "7":
			actionErr = app.interactiveReset(reader)
		case "8":
			fmt.Println("Exiting program. Goodbye!")
			return
		default:
			fmt.Println("Invalid choice. Please try again.")
		}
		if actionErr != nil {
			log.Printf("Error: %s", actionErr)
		}
	}
}
