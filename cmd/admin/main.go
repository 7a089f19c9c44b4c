package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"complaintdesk/backend/internal/directory"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is not set")
	}
	adminID, _ := strconv.ParseInt(os.Getenv("ADMIN_ID"), 10, 64)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	storageSvc := storage.NewService(db, nil) // No redis needed for admin CLI
	dir := directory.NewService(storageSvc, adminID)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "add-employee":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin add-employee <handle>")
			os.Exit(1)
		}
		e, err := dir.AddEmployee(os.Args[2])
		if err != nil {
			log.Fatalf("Error adding employee: %v", err)
		}
		fmt.Printf("Employee @%s added. They register themselves with /register in the bot.\n", e.Handle)
	case "remove-employee":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin remove-employee <handle>")
			os.Exit(1)
		}
		if err := dir.RemoveEmployee(os.Args[2]); err != nil {
			log.Fatalf("Error removing employee: %v", err)
		}
		fmt.Printf("Employee %s removed.\n", os.Args[2])
	case "list-employees":
		employees, err := dir.ListEmployees()
		if err != nil {
			log.Fatalf("Error listing employees: %v", err)
		}
		if len(employees) == 0 {
			fmt.Println("No employees.")
			return
		}
		for _, e := range employees {
			fmt.Println(formatEmployee(e))
		}
	case "unblock":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin unblock <telegram_id>")
			os.Exit(1)
		}
		id, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Println("Invalid telegram ID. Please provide an integer.")
			os.Exit(1)
		}
		if err := storageSvc.UnblockUser(id); err != nil {
			log.Fatalf("Error unblocking user: %v", err)
		}
		fmt.Printf("User %d has been unblocked.\n", id)
	case "list-blocked":
		users, err := storageSvc.ListBlockedUsers()
		if err != nil {
			log.Fatalf("Error listing blocked users: %v", err)
		}
		if len(users) == 0 {
			fmt.Println("No blocked users.")
			return
		}
		for _, u := range users {
			fmt.Printf("%d  @%s  blocked %s\n", u.TelegramID, u.Username, u.BlockedAt.Format("2006-01-02 15:04"))
		}
	case "list-pending":
		complaints, err := storageSvc.ListPendingComplaints()
		if err != nil {
			log.Fatalf("Error listing pending complaints: %v", err)
		}
		if len(complaints) == 0 {
			fmt.Println("No pending complaints.")
			return
		}
		for _, c := range complaints {
			fmt.Printf("#%d  %s  from %s (%d)  %s\n",
				c.ID, c.CreatedAt.Format("2006-01-02 15:04"), c.SubmitterName, c.SubmitterID, c.FIO)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <add-employee|remove-employee|list-employees|unblock|list-blocked|list-pending> [args]")
	os.Exit(1)
}

func formatEmployee(e models.Employee) string {
	status := "not registered"
	if e.Registered {
		status = "registered"
	}
	id := "-"
	if e.TelegramID != nil {
		id = strconv.FormatInt(*e.TelegramID, 10)
	}
	return fmt.Sprintf("@%s  %s  id=%s  %s", e.Handle, e.FullName, id, status)
}
