package utils

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fitly/fashion-ai/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendEmail sends an email using SendGrid
func SendEmail(toName, toEmail, subject, textContent, htmlContent string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not set in environment variables")
	}

	from := mail.NewEmail("Fitly App", "no-reply@tryonfusion.com")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(apiKey)

	response, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}

	if response.StatusCode >= 400 {
		log.Printf("SendGrid API Error: Status Code %d, Body: %s", response.StatusCode, response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	log.Printf("Email sent successfully to %s. Status Code: %d", toEmail, response.StatusCode)
	return nil
}

// SendOutfitsReadyEmail notifies a user that their generated outfits are
// ready to view.
func SendOutfitsReadyEmail(toEmail string, outfits []models.OutfitCombination) error {
	ready := 0
	for _, o := range outfits {
		if o.Error == "" {
			ready++
		}
	}

	subject := fmt.Sprintf("Your %d outfit looks are ready!", ready)

	var text strings.Builder
	fmt.Fprintf(&text, "We styled %d outfit combinations from your wardrobe.\n\n", len(outfits))
	var html strings.Builder
	fmt.Fprintf(&html, "<p>We styled <strong>%d</strong> outfit combinations from your wardrobe.</p><ul>", len(outfits))
	for _, o := range outfits {
		if o.Error != "" {
			continue
		}
		fmt.Fprintf(&text, "Outfit %d: %s\n", o.OutfitNumber, o.Reasoning)
		fmt.Fprintf(&html, "<li><strong>Outfit %d:</strong> %s</li>", o.OutfitNumber, o.Reasoning)
	}
	html.WriteString("</ul>")

	return SendEmail("", toEmail, subject, text.String(), html.String())
}
