package main

import (
	"fmt"
	"log"

	"github.com/travelease/ticketing-backend/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for TravelEase")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateSecrets(utils.ServerSecrets)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Secrets generated successfully!")
	fmt.Println()
	fmt.Println("Add these to your .env file:")
	for _, secret := range secrets {
		fmt.Println()
		fmt.Printf("# %s (%d bytes)\n", secret.Purpose, secret.Bytes)
		fmt.Printf("%s=%s\n", secret.EnvVar, secret.Value)
	}
	fmt.Println()
	fmt.Println("IMPORTANT: the webhook secret must match the one configured at the payment gateway.")
	fmt.Println("Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
