package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/usuarios-storage-api/config"
)

type demoUsuario struct {
	Nombre   string
	Email    string
	Telefono string
}

var demoUsuarios = []demoUsuario{
	{Nombre: "Ana Lopez", Email: "ana@example.com", Telefono: "555-1234"},
	{Nombre: "Bruno Diaz", Email: "bruno@example.com", Telefono: "555-2345"},
	{Nombre: "Carla Gomez", Email: "carla@example.com", Telefono: "555-3456"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	inserted := 0
	for _, u := range demoUsuarios {
		res, err := db.Exec(`
			INSERT INTO usuarios (nombre, email, telefono)
			VALUES ($1, $2, $3)
			ON CONFLICT (email) DO NOTHING
		`, u.Nombre, strings.ToLower(u.Email), u.Telefono)
		if err != nil {
			log.Fatalf("failed to seed usuario %s: %v", u.Email, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
			fmt.Printf("seeded usuario: %s <%s>\n", u.Nombre, u.Email)
		}
	}
	fmt.Printf("seed done: %d inserted, %d already present\n", inserted, len(demoUsuarios)-inserted)
}
