// Command generate_vapid prints a VAPID key pair for web push in .env form.
package main

import (
	"fmt"
	"os"

	"aura/push"

	"github.com/sirupsen/logrus"
)

func main() {
	keys, err := push.GenerateKeys()
	if err != nil {
		logrus.WithError(err).Fatal("failed to generate VAPID keys")
	}

	subscriber := "mailto:admin@aura.app"
	if len(os.Args) > 1 {
		subscriber = os.Args[1]
	}

	fmt.Println("# add these to .env")
	fmt.Printf("VAPID_PUBLIC_KEY=%s\n", keys.Public)
	fmt.Printf("VAPID_PRIVATE_KEY=%s\n", keys.Private)
	fmt.Printf("VAPID_SUBSCRIBER=%s\n", subscriber)
}
